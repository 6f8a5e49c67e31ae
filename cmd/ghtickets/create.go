package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tallcraft/ghtickets"
	"github.com/tallcraft/ghtickets/internal/ticket"
)

var createCmd = &cobra.Command{
	Use:   "create <message...>",
	Short: "Create a new support ticket",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		authorName, _ := cmd.Flags().GetString("author")
		authorID, _ := cmd.Flags().GetString("uuid")
		server, _ := cmd.Flags().GetString("server")
		world, _ := cmd.Flags().GetString("world")
		at, _ := cmd.Flags().GetString("at")

		id, err := uuid.Parse(authorID)
		if err != nil {
			return fmt.Errorf("invalid --uuid: %w", err)
		}

		var loc *ticket.Location
		if at != "" {
			if loc = ticket.ParseLocation(at); loc == nil {
				return fmt.Errorf("invalid --at %q, want \"x, y, z\"", at)
			}
		}

		system, err := startSystem(rootCtx)
		if err != nil {
			return err
		}
		defer system.Close()

		ticketID, err := system.Service.CreateTicket(rootCtx, ghtickets.CreateRequest{
			AuthorID:   id,
			AuthorName: authorName,
			ServerName: server,
			WorldName:  world,
			Location:   loc,
			Body:       strings.Join(args, " "),
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created ticket #%d\n", ticketID)
		return nil
	},
}

func init() {
	createCmd.Flags().String("author", "", "player name opening the ticket (required)")
	createCmd.Flags().String("uuid", "", "player UUID (required)")
	createCmd.Flags().String("server", "", "server name (overridden by config serverName if set)")
	createCmd.Flags().String("world", "", "world name")
	createCmd.Flags().String("at", "", "location as \"x, y, z\"")
	_ = createCmd.MarkFlagRequired("author")
	_ = createCmd.MarkFlagRequired("uuid")
}
