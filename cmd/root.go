package cmd

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "livetrack",
	Short: "Live delivery location streaming",
	// Without a subcommand the root behaves like watch.
	RunE: runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().StringSliceVarP(&watchOrders, "order", "o", nil, "order id to track (repeatable)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
