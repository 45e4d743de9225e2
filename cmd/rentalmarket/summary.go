package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/pflow-xyz/go-rental-market/events"
)

func summaryCmd(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	lender := fs.String("lender", "", "Also list the distinct offers of this lender")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: rentalmarket summary <events.db> [options]

Summarize the marketplace event store: totals per event type and the
number of distinct offers seen.

Options:
`)
		fs.PrintDefaults()
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

	history, err := store.ReadAll(context.Background(), events.Filter{})
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}

	byType := make(map[string]int)
	offers := make(map[string]struct{})
	for _, e := range history {
		byType[e.Type]++
		offers[e.OfferHash] = struct{}{}
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("Total events:    %d\n", len(history))
	fmt.Printf("Distinct offers: %d\n", len(offers))
	fmt.Println("\nBy type:")
	for _, t := range types {
		fmt.Printf("  %-22s %d\n", t, byType[t])
	}

	if *lender != "" {
		lenderOffers, err := events.OffersOf(context.Background(), store, *lender)
		if err != nil {
			return fmt.Errorf("offers of %s: %w", *lender, err)
		}
		fmt.Printf("\nOffers by %s:\n", *lender)
		for _, h := range lenderOffers {
			fmt.Printf("  %s\n", h)
		}
	}
	return nil
}
