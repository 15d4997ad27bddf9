package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/promoter/cmd/promoter/commands"
	"git.home.luguber.info/inful/promoter/internal/config"
	"git.home.luguber.info/inful/promoter/internal/errors"
	"git.home.luguber.info/inful/promoter/internal/version"
)

func main() {
	// .env files must be loaded before kong parses flags so env-tag
	// fallbacks see their values.
	config.LoadEnvFiles()

	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("promoter"),
		kong.Description("Promotes built artifacts into the GitOps deployment catalog."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
