// Package commands wires the promoter CLI: flag grammar, configuration
// resolution, and the orchestration that connects the promotion engine to
// the reporting sinks and the local history ledger.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/promoter/internal/config"
	"git.home.luguber.info/inful/promoter/internal/errors"
	"git.home.luguber.info/inful/promoter/internal/store"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (optional; flags and environment cover CI runs)" env:"PROMOTER_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Preview    PreviewCmd    `cmd:"" help:"Promote a built artifact into its branch preview document"`
	Production ProductionCmd `cmd:"" help:"Promote a built artifact into its production document"`
	History    HistoryCmd    `cmd:"" help:"List recent promotions from the local ledger"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the config file when one was given and runs on defaults
// otherwise. Flags and their environment fallbacks cover everything a CI
// invocation needs, so the file is genuinely optional.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.ConfigError("failed to load configuration", err).
			WithContext("path", path)
	}
	return cfg, nil
}

// applyRepoFlags folds the CLI repository inputs into the configuration.
// Flags win over the config file; the file covers what the flags leave unset.
func applyRepoFlags(cfg *config.Config, repo, token string) error {
	if repo != "" {
		owner, name, err := store.SplitRepo(repo)
		if err != nil {
			return err
		}
		cfg.Repo.Owner = owner
		cfg.Repo.Name = name
	}
	if token != "" {
		cfg.Repo.Token = token
	}

	if cfg.Repo.Store == config.StoreLocal {
		return nil
	}
	if cfg.Repo.Owner == "" || cfg.Repo.Name == "" {
		return errors.ValidationError("state repository is required (--repo, GITOPS_REPO, or repo.owner/repo.name in the config file)", nil)
	}
	if cfg.Repo.Token == "" {
		return errors.ValidationError("state repository token is required (--token, GITOPS_TOKEN, or repo.token in the config file)", nil)
	}
	return nil
}
