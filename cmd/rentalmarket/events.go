package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pflow-xyz/go-rental-market/events"
)

func eventsCmd(args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	typeFilter := fs.String("type", "", "Filter by event type")
	offerFilter := fs.String("offer", "", "Filter by offer hash")
	lenderFilter := fs.String("lender", "", "Filter by lender address")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: rentalmarket events <events.db> [options]

Display the event timeline recorded by the marketplace.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Show all events
  rentalmarket events market-events.db

  # Only rentals that started
  rentalmarket events market-events.db --type RentalStarted

  # Full history of one offer
  rentalmarket events market-events.db --offer 0xabc...
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("event store file required")
	}

	store, err := events.NewSQLiteStore(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer store.Close()

	filter := events.Filter{
		OfferHash: *offerFilter,
		Lender:    *lenderFilter,
	}
	if *typeFilter != "" {
		filter.Types = []string{*typeFilter}
	}

	history, err := store.ReadAll(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	if len(history) == 0 {
		fmt.Println("No events recorded")
		return nil
	}

	fmt.Printf("%-10s  %-22s  %-66s  %s\n", "TIMESTAMP", "TYPE", "OFFER", "DATA")
	for _, e := range history {
		fmt.Printf("%-10d  %-22s  %-66s  %s\n", e.Timestamp, e.Type, e.OfferHash, string(e.Data))
	}
	fmt.Printf("\n%d event(s)\n", len(history))
	return nil
}
