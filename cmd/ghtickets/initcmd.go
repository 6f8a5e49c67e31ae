package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallcraft/ghtickets/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefault(cfgPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s, fill in github.auth and github.repository\n", cfgPath)
		return nil
	},
}
