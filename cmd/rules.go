package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain/repositories"
)

var (
	ruleTag     string
	streamLimit int
)

// rulesCmd manages the filtered-stream rules of the X API
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage filtered-stream rules",
	Long: `Manage the filtered-stream rules of the X API.

Available subcommands:
  add   - Add one rule matching any of the given keywords
  clear - Delete every existing rule
  read  - Print posts from the filtered stream`,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <keyword>...",
	Short: "Add a rule matching any of the keywords",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRules(func(ctx context.Context, rules repositories.StreamRules, logger *zap.Logger) error {
			if err := rules.AddRules(ctx, args, ruleTag); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added rule for %d keywords\n", len(args))
			return nil
		})
	},
}

var rulesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all filtered-stream rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRules(func(ctx context.Context, rules repositories.StreamRules, logger *zap.Logger) error {
			deleted, err := rules.DeleteAllRules(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d rules\n", deleted)
			return nil
		})
	},
}

var rulesReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Print posts from the filtered stream",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRules(func(ctx context.Context, rules repositories.StreamRules, logger *zap.Logger) error {
			tweets, err := rules.ReadStream(ctx, streamLimit)
			if err != nil {
				return err
			}
			for _, tweet := range tweets {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", tweet.ID, tweet.Text)
			}
			return nil
		})
	},
}

func init() {
	rulesAddCmd.Flags().StringVar(&ruleTag, "tag", "", "Tag attached to the rule")
	rulesReadCmd.Flags().IntVarP(&streamLimit, "limit", "n", 10, "Number of posts to read before stopping")

	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesClearCmd)
	rulesCmd.AddCommand(rulesReadCmd)
}

func withRules(fn func(ctx context.Context, rules repositories.StreamRules, logger *zap.Logger) error) error {
	cfg, logger, err := setup(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, err := newTwitterClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, client, logger)
}
