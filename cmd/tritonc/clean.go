package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recht/triton/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the artifact cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached artifact",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		root := cacheRoot()
		if err := cache.Clean(root); err != nil {
			return fmt.Errorf("clean %s: %w", root, err)
		}
		fmt.Fprintf(os.Stdout, "cleaned %s\n", root)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
}
