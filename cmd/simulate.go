package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/livetrack/config"
	"github.com/kilianp07/livetrack/infra/auth"
	"github.com/kilianp07/livetrack/infra/logger"
	"github.com/kilianp07/livetrack/infra/mqtt"
	"github.com/kilianp07/livetrack/simulator"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish simulated driver locations for the configured orders",
	RunE:  runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Transport != config.TransportMQTT {
		return fmt.Errorf("simulate requires the mqtt transport, got %s", cfg.Transport)
	}
	if len(cfg.Simulator.Orders) == 0 {
		return fmt.Errorf("no simulator orders configured")
	}
	creds, err := auth.New(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	pub, err := mqtt.NewPublisher(ctx, cfg.MQTT, cfg.Stream.TopicPrefix, creds.Token())
	if err != nil {
		return fmt.Errorf("mqtt publisher: %w", err)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logger.New("main").Errorf("publisher close: %v", err)
		}
	}()

	sim, err := simulator.New(cfg.Simulator, pub, logger.New("simulator"))
	if err != nil {
		return err
	}
	return sim.Run(ctx)
}
