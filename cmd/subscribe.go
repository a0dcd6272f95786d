package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/internal/websocket"
)

var subscribeAddr string

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Print results pushed by a running stream",
	Long: `Connect to the /ws endpoint of a running "topicstream stream" and print
every published result as one JSON line.`,
	Args: cobra.NoArgs,
	RunE: runSubscribe,
}

func init() {
	subscribeCmd.Flags().StringVar(&subscribeAddr, "addr", "", "Server address (defaults to SERVER_ADDR)")
}

func runSubscribe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	addr := subscribeAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	encoder := json.NewEncoder(cmd.OutOrStdout())
	err = websocket.Subscribe(ctx, websocket.SubscriberURL(addr), false, func(msg domain.ResultMessage) error {
		return encoder.Encode(msg)
	}, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("subscription ended: %w", err)
	}
	return nil
}
