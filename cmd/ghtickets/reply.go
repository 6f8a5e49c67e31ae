package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tallcraft/ghtickets"
)

var replyCmd = &cobra.Command{
	Use:   "reply <id> <message...>",
	Short: "Add a reply to a ticket",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ticket id %q", args[0])
		}
		author, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}

		system, err := startSystem(rootCtx)
		if err != nil {
			return err
		}
		defer system.Close()

		t, err := system.Service.ReplyTicket(rootCtx, id, author, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if t == nil {
			fmt.Printf("Ticket #%d not found\n", id)
			return nil
		}

		fmt.Printf("Replied to ticket #%d\n", t.ID)
		return nil
	},
}

// actorFromFlags builds the acting author from the shared --name/--uuid
// flags. A missing UUID means a non-player actor (console).
func actorFromFlags(cmd *cobra.Command) (ghtickets.Author, error) {
	name, _ := cmd.Flags().GetString("name")
	rawID, _ := cmd.Flags().GetString("uuid")

	author := ghtickets.Author{DisplayName: name}
	if rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return author, fmt.Errorf("invalid --uuid: %w", err)
		}
		author.ID = &id
	}
	return author, nil
}

func init() {
	replyCmd.Flags().String("name", "Console", "display name of the replier")
	replyCmd.Flags().String("uuid", "", "player UUID of the replier, if any")
}
