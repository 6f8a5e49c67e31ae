package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		system, err := startSystem(rootCtx)
		if err != nil {
			return err
		}
		defer system.Close()

		tickets, err := system.Service.RefreshList(rootCtx)
		if err != nil {
			return err
		}

		shown := 0
		for _, t := range tickets {
			if !all && !t.Open {
				continue
			}
			status := "open"
			if !t.Open {
				status = "closed"
			}
			fmt.Printf("#%d [%s] %s: %s\n", t.ID, status, t.AuthorName, t.Body)
			shown++
		}
		if shown == 0 {
			fmt.Println("No tickets.")
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("all", false, "include closed tickets")
}
