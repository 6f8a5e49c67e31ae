package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallcraft/ghtickets"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ticket system in the foreground",
	Long: `Run connects to the backing repository, keeps the local cache
refreshed, and prints ticket notifications until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		system, err := startSystem(rootCtx)
		if err != nil {
			return err
		}
		defer system.Close()

		system.Bus.Register(&ghtickets.HandlerFunc{
			Name: "console-notifier",
			Types: []ghtickets.EventType{
				ghtickets.EventTicketCreated,
				ghtickets.EventTicketStatusChanged,
				ghtickets.EventTicketCommented,
			},
			Func: func(ctx context.Context, event *ghtickets.Event) error {
				printNotification(system.Config, event)
				return nil
			},
		})

		fmt.Println("ghtickets running, Ctrl-C to stop")
		<-rootCtx.Done()
		fmt.Println("shutting down")
		return nil
	},
}

// printNotification renders one event, honoring the per-event staff
// toggles. This console frontend has no player sessions, so it plays the
// staff audience role; the player toggles are for game-server embeddings.
func printNotification(cfg *ghtickets.Config, event *ghtickets.Event) {
	switch event.Type {
	case ghtickets.EventTicketCreated:
		if cfg.Notify.OnCreate.Staff {
			fmt.Printf("[notify] new ticket #%d by %s\n", event.Ticket.ID, event.Ticket.AuthorName)
		}
	case ghtickets.EventTicketStatusChanged:
		if cfg.Notify.OnStatusChange.Staff {
			verb := "closed"
			if event.Ticket.Open {
				verb = "opened"
			}
			fmt.Printf("[notify] ticket #%d %s\n", event.Ticket.ID, verb)
		}
	case ghtickets.EventTicketCommented:
		if cfg.Notify.OnComment.Staff && event.Comment != nil {
			fmt.Printf("[notify] new comment on ticket #%d by %s\n", event.Ticket.ID, event.Comment.DisplayName)
		}
	}
}
