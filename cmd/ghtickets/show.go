package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tallcraft/ghtickets"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a ticket with its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ticket id %q", args[0])
		}

		system, err := startSystem(rootCtx)
		if err != nil {
			return err
		}
		defer system.Close()

		t, err := system.Service.FetchTicket(rootCtx, id)
		if err != nil {
			return err
		}
		if t == nil {
			fmt.Printf("Ticket #%d not found\n", id)
			return nil
		}

		printTicket(t)
		return nil
	},
}

func printTicket(t *ghtickets.Ticket) {
	status := "open"
	if !t.Open {
		status = "closed"
	}
	fmt.Printf("Ticket #%d [%s] by %s on %s\n", t.ID, status, t.AuthorName,
		t.CreatedAt.Format("2006-01-02 15:04"))
	if t.ServerName != "" || t.WorldName != "" {
		fmt.Printf("  %s / %s", t.ServerName, t.WorldName)
		if t.Location != nil {
			fmt.Printf(" @ %s", t.Location)
		}
		fmt.Println()
	}
	fmt.Printf("  %s\n", t.Body)
	for i := range t.Comments {
		c := &t.Comments[i]
		fmt.Printf("  > %s (%s): %s\n", c.DisplayName,
			c.CreatedAt.Format("2006-01-02 15:04"), c.Body)
	}
}
