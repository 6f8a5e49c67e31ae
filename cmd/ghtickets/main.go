// Command ghtickets is a thin console frontend for the ticket system.
// It consumes only the public service surface and notification events;
// all synchronization logic lives in the library.
package main

func main() {
	Execute()
}
