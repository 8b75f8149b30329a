package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/contentbuilder/cmd/contentbuilder/commands"
	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var cli commands.CLI
	parser, err := kong.New(&cli,
		kong.Name("contentbuilder"),
		kong.Description("Assemble the website content corpus and render preview artifacts."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	if err != nil {
		slog.Error("Failed to initialise CLI", "error", err)
		return foundationerrors.ExitFatal
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return foundationerrors.ExitFatal
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&commands.Global{Context: ctx, Logger: slog.Default(), Stdout: os.Stdout}, &cli)
	return foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Handle(err)
}
