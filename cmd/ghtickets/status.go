package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Re-open a closed ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeStatus(cmd, args[0], true)
	},
}

var closeCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close an open ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeStatus(cmd, args[0], false)
	},
}

func changeStatus(cmd *cobra.Command, rawID string, open bool) error {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return fmt.Errorf("invalid ticket id %q", rawID)
	}
	actor, err := actorFromFlags(cmd)
	if err != nil {
		return err
	}

	system, err := startSystem(rootCtx)
	if err != nil {
		return err
	}
	defer system.Close()

	t, err := system.Service.SetStatus(rootCtx, id, open, actor.ID)
	if err != nil {
		return err
	}
	if t == nil {
		fmt.Printf("Ticket #%d not found\n", id)
		return nil
	}

	verb := "closed"
	if t.Open {
		verb = "opened"
	}
	fmt.Printf("Ticket #%d %s\n", t.ID, verb)
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{openCmd, closeCmd} {
		cmd.Flags().String("name", "Console", "display name of the actor")
		cmd.Flags().String("uuid", "", "player UUID of the actor, if any")
	}
}
