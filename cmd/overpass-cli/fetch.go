package main

import (
	"bytes"
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/skywatch/overpass/internal/catalog"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch current element sets and update the local cache",
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	env, err := setup()
	if err != nil {
		return err
	}

	fetcher := catalog.NewSatelliteFetcher(env.logger, env.sats)
	data, err := fetcher.Fetch(context.Background())
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := env.cache.Write(data, now); err != nil {
		return err
	}

	entries, err := catalog.Parse(bytes.NewReader(data), env.logger)
	if err != nil {
		return err
	}

	cmd.Printf("Fetched %d element sets at %s\n", len(entries), now.Format(time.RFC3339))
	for _, e := range entries {
		cmd.Printf("  %-24s NORAD %-6d epoch %s\n", e.Name, e.NoradID, e.Epoch.Format(time.RFC3339))
	}
	return nil
}
