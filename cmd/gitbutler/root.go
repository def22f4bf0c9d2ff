package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/motyar/gitbutler/internal/actions"
	"github.com/motyar/gitbutler/internal/agent"
	"github.com/motyar/gitbutler/internal/config"
	"github.com/motyar/gitbutler/internal/github"
	"github.com/motyar/gitbutler/internal/intake"
	"github.com/motyar/gitbutler/internal/llm"
	"github.com/motyar/gitbutler/internal/memory"
	"github.com/motyar/gitbutler/internal/publish"
	"github.com/motyar/gitbutler/internal/queue"
	"github.com/motyar/gitbutler/internal/state"
	"github.com/motyar/gitbutler/internal/telegram"
)

const stateFileName = "state.json"

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "gitbutler",
		Short:         "A personal AI assistant living in a git repository",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			}
		},
		// Bare invocation follows the configured run mode.
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Run.Mode == "single" {
				return runOnce(cfg)
			}
			return runLoop(cfg)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "./config.yaml", "path to config file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Process at most one message and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				return runOnce(cfg)
			},
		},
		&cobra.Command{
			Use:   "loop",
			Short: "Poll continuously until interrupted",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				return runLoop(cfg)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the persisted assistant state",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				return printStatus(cfg)
			},
		},
	)
	return root
}

func runOnce(cfg *config.Config) error {
	runner, err := buildRunner(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runner.RunOnce(ctx)
}

func runLoop(cfg *config.Config) error {
	runner, err := buildRunner(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runner.RunContinuous(ctx)
}

func printStatus(cfg *config.Config) error {
	tracker := state.NewTracker(filepath.Join(cfg.Storage.Dir, stateFileName))
	if err := tracker.Load(); err != nil {
		return err
	}
	fmt.Printf("cursor:       %d\n", tracker.Cursor())
	fmt.Printf("mode:         %s\n", tracker.Mode())
	if t := tracker.LastRunTime(); !t.IsZero() {
		fmt.Printf("last run:     %s\n", t.Format("2006-01-02 15:04:05 UTC"))
	}
	outbox := queue.NewFile[queue.Outbound](filepath.Join(cfg.Storage.Dir, "outbox.json"))
	fmt.Printf("queued sends: %d\n", len(outbox.Load()))
	return nil
}

// buildRunner wires the full collaborator graph from configuration.
func buildRunner(cfg *config.Config) (*agent.Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tracker := state.NewTracker(filepath.Join(cfg.Storage.Dir, stateFileName))
	if err := tracker.Load(); err != nil {
		return nil, err
	}

	client := telegram.NewClient(cfg.Telegram.BotToken)
	var source intake.UpdateSource = client
	if cfg.Run.SkipUpdateCheck {
		log.Printf("📦 update check already done, using cache at %s", cfg.Storage.CacheFile)
		source = intake.NewCachedSource(cfg.Storage.CacheFile, client)
	}
	loop := intake.NewLoop(tracker, source, cfg.Telegram.ChatID)
	loop.SetPollTimeout(cfg.Telegram.PollTimeout)

	store, err := memory.NewStore(cfg.Storage.Dir, cfg.Storage.SkillsDir)
	if err != nil {
		return nil, err
	}

	return agent.NewRunner(agent.Deps{
		Tracker:   tracker,
		Intake:    loop,
		Outbox:    queue.NewFile[queue.Outbound](filepath.Join(cfg.Storage.Dir, "outbox.json")),
		Sender:    client,
		Provider:  llm.NewOpenAIProvider(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model),
		Store:     store,
		Actions:   actions.NewHandler(store, github.NewClient(cfg.GitHub.Token, cfg.GitHub.Repository)),
		Publisher: publish.NewPublisher("."),
	}), nil
}
