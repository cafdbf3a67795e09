package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallguard/recallguard/internal/notify"
)

func vapidKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for Web Push",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := notify.GenerateVAPIDKeys()
			if err != nil {
				return fmt.Errorf("failed to generate keys: %w", err)
			}

			fmt.Println("Add these to your config or environment:")
			fmt.Printf("VAPID_PUBLIC_KEY=%s\n", pub)
			fmt.Printf("VAPID_PRIVATE_KEY=%s\n", priv)
			return nil
		},
	}
}
