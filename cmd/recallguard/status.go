package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print tracked item, recall, and index counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.engine.Stats(cmd.Context())
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%-20s %d\n", k, stats[k])
			}

			if last, err := a.store.GetSetting(cmd.Context(), "last_match_run"); err == nil && last != "" {
				fmt.Printf("%-20s %s\n", "last_match_run", last)
			}
			return nil
		},
	}
}
