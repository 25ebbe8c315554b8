package main

import (
	"context"
	"log"
	"os"

	"github.com/incidentdesk/incidentdesk"
)

func main() {
	out := log.New(os.Stdout, "", 0)

	desk := incidentdesk.NewDesk(
		incidentdesk.WithReporter(incidentdesk.NewConsoleReporter(out, true)),
	)

	// Servers still resolving incidents are abandoned when main returns
	if _, err := desk.Run(context.Background()); err != nil {
		log.Fatalf("incident desk failed: %v", err)
	}
}
