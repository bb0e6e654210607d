package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/livetrack/app"
	"github.com/kilianp07/livetrack/config"
	"github.com/kilianp07/livetrack/core/stream"
	"github.com/kilianp07/livetrack/infra/logger"
)

var watchOrders []string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Track orders and print their live location updates",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchOrders, "order", "o", nil, "order id to track (repeatable)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if len(watchOrders) == 0 {
		return fmt.Errorf("at least one --order is required")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	var mu sync.Mutex
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, id := range watchOrders {
		feed := svc.Feed.SubscribeAll()
		go func(id string) {
			for u := range stream.FilterByOrder(ctx, feed, id) {
				mu.Lock()
				err := enc.Encode(u)
				mu.Unlock()
				if err != nil {
					logger.New("watch").Errorf("write update: %v", err)
				}
			}
		}(id)
	}
	return svc.Run(ctx, watchOrders...)
}
