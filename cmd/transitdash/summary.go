package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmetro/transitdash"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print feed statistics without starting a server",
	Args:  cobra.NoArgs,
	RunE:  summary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func summary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snap, err := loadSnapshot(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	derived, err := transitdash.BuildDerived(snap)
	if err != nil {
		return err
	}

	o := derived.Overview
	fmt.Printf("Feed %s\n", o.FeedSHA256)
	fmt.Printf("  Timezone:   %s\n", o.Timezone)
	fmt.Printf("  Sample day: %s\n", o.SampleDate)
	fmt.Printf("  Routes:     %d\n", o.NumRoutes)
	fmt.Printf("  Stops:      %d\n", o.NumStops)
	fmt.Printf("  Trips:      %d (%d on sample day)\n", o.NumTrips, o.NumSampleTrips)
	fmt.Printf("  Service:    %.1f km over %.1f hours\n", o.ServiceDistanceKm, o.ServiceHours)

	fmt.Println("\nBusiest routes:")
	for i, r := range derived.TopRoutes {
		fmt.Printf("  %d. %s (%s): %d visits\n", i+1, r.ShortName, r.Mode, r.NumVisits)
	}

	fmt.Println("\nBusiest stops:")
	for i, s := range derived.TopStops {
		fmt.Printf("  %d. %s (%s): %d visits\n", i+1, s.Name, s.Mode, s.NumVisits)
	}

	return nil
}
