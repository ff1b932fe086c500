package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skywatch/overpass/internal/catalog"
	"github.com/skywatch/overpass/internal/config"
	"github.com/skywatch/overpass/internal/ephem"
	"github.com/skywatch/overpass/internal/passes"
	"github.com/skywatch/overpass/internal/transform"
)

var (
	passesMinAlt   float64
	passesMax      int
	passesSunLimit float64
	passesHorizon  int
	passesSat      int
	passesJSON     bool
)

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "List upcoming visible passes",
	Long: `Fetches current element sets, generates ephemerides over the search
horizon, and lists the visible passes for each tracked satellite.`,
	RunE: runPasses,
}

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Show ephemeris coverage per satellite",
	RunE:  runRange,
}

func init() {
	addSearchFlags(passesCmd)
	passesCmd.Flags().IntVar(&passesHorizon, "horizon", 0, "search horizon in hours")
	passesCmd.Flags().IntVar(&passesSat, "sat", 0, "only this NORAD ID")
	passesCmd.Flags().BoolVar(&passesJSON, "json", false, "output as JSON")
	rangeCmd.Flags().IntVar(&passesHorizon, "horizon", 0, "generation horizon in hours")
	rootCmd.AddCommand(passesCmd)
	rootCmd.AddCommand(rangeCmd)
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&passesMinAlt, "min-altitude", 10, "minimum peak altitude in degrees (overrides config)")
	cmd.Flags().IntVar(&passesMax, "max-passes", 10, "maximum passes per satellite (overrides config)")
	cmd.Flags().Float64Var(&passesSunLimit, "sun-limit", -6, "maximum sun altitude in degrees (overrides config)")
}

// cliSearchOptions merges explicitly set search flags over the configured
// defaults. A flag left untouched never overrides the config, even when its
// help default happens to match; an explicit value is validated and either
// applied or rejected.
func cliSearchOptions(cmd *cobra.Command, search config.Search) (passes.SearchOptions, error) {
	opts := passes.SearchOptions{
		MinAltitude:      search.MinAltitudeDeg,
		MaxPasses:        search.MaxPasses,
		SunAltitudeLimit: search.SunAltitudeLimit,
	}

	flags := cmd.Flags()
	if flags.Changed("min-altitude") {
		if passesMinAlt < 0 || passesMinAlt >= 90 {
			return opts, fmt.Errorf("--min-altitude must be in [0, 90)")
		}
		opts.MinAltitude = passesMinAlt
	}
	if flags.Changed("max-passes") {
		if passesMax < 1 {
			return opts, fmt.Errorf("--max-passes must be at least 1")
		}
		opts.MaxPasses = passesMax
	}
	if flags.Changed("sun-limit") {
		if passesSunLimit < -18 || passesSunLimit > 0 {
			return opts, fmt.Errorf("--sun-limit must be in [-18, 0]")
		}
		opts.SunAltitudeLimit = passesSunLimit
	}
	return opts, nil
}

func runPasses(cmd *cobra.Command, _ []string) error {
	env, err := setup()
	if err != nil {
		return err
	}

	opts, err := cliSearchOptions(cmd, env.cfg.Search)
	if err != nil {
		return err
	}

	horizon := time.Duration(env.cfg.Search.HorizonHours) * time.Hour
	if passesHorizon > 0 {
		horizon = time.Duration(passesHorizon) * time.Hour
	}

	ctx := context.Background()
	entries, err := env.entries(ctx)
	if err != nil {
		return err
	}
	ephs := env.ephemerides(ctx, entries, horizon)
	engine := ephem.NewEngine(env.observer, ephs...)

	type satResult struct {
		Satellite catalog.Satellite `json:"satellite"`
		Passes    []passes.Pass     `json:"passes"`
	}
	var results []satResult

	now := time.Now().UTC()
	for i, sat := range env.sats {
		if passesSat != 0 && sat.NoradID != passesSat {
			continue
		}
		opts.Satellite = i
		found := passes.FindPasses(ctx, engine, opts)
		if found == nil {
			found = []passes.Pass{}
		}
		results = append(results, satResult{Satellite: sat, Passes: found})
	}

	if passesSat != 0 && len(results) == 0 {
		return fmt.Errorf("satellite %d is not in the tracked set", passesSat)
	}

	if passesJSON {
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	}

	for _, res := range results {
		cmd.Printf("%s (NORAD %d)\n", res.Satellite.FullName, res.Satellite.NoradID)
		if len(res.Passes) == 0 {
			cmd.Println("  no visible passes in the search window")
			continue
		}
		for _, p := range res.Passes {
			cmd.Printf("  %s  (%s)\n", p.Summary(), p.TimeUntil(now))
		}
	}
	return nil
}

func runRange(cmd *cobra.Command, _ []string) error {
	env, err := setup()
	if err != nil {
		return err
	}

	horizon := time.Duration(env.cfg.Search.HorizonHours) * time.Hour
	if passesHorizon > 0 {
		horizon = time.Duration(passesHorizon) * time.Hour
	}

	ctx := context.Background()
	entries, err := env.entries(ctx)
	if err != nil {
		return err
	}
	ephs := env.ephemerides(ctx, entries, horizon)

	for i, sat := range env.sats {
		if ephs[i] == nil {
			cmd.Printf("%-8s NORAD %-6d no ephemeris (missing or invalid TLE)\n", sat.ShortName, sat.NoradID)
			continue
		}
		startJD, endJD, ok := ephs[i].Range()
		if !ok {
			cmd.Printf("%-8s NORAD %-6d insufficient samples\n", sat.ShortName, sat.NoradID)
			continue
		}
		cmd.Printf("%-8s NORAD %-6d %s .. %s  (%d points)\n",
			sat.ShortName, sat.NoradID,
			transform.TimeFromJulian(startJD).Format(time.RFC3339),
			transform.TimeFromJulian(endJD).Format(time.RFC3339),
			ephs[i].Len(),
		)
	}
	return nil
}
