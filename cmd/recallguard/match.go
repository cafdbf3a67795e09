package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallguard/recallguard/internal/core"
)

func matchCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run a one-off matching pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch core.Category(category) {
			case "", core.CategoryFood, core.CategoryVehicle, core.CategoryProduct:
			default:
				return fmt.Errorf("unknown category %q", category)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.engine.Reindex(ctx); err != nil {
				return fmt.Errorf("failed to build index: %w", err)
			}
			if err := a.engine.RunMatchingPass(ctx, core.Category(category)); err != nil {
				return err
			}

			fmt.Println("Matching pass complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "limit the pass to one category (food, vehicle, product)")
	return cmd
}
