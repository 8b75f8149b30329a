package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/contentbuilder/internal/config"
	"git.home.luguber.info/inful/contentbuilder/internal/pipeline"
)

// LogLevelEnvVar overrides the log level when --verbose is not given.
const LogLevelEnvVar = "CONTENTBUILDER_LOG_LEVEL"

// Global is shared state passed to every command.
type Global struct {
	Context context.Context
	Logger  *slog.Logger
	Stdout  io.Writer
}

func (g *Global) ctx() context.Context {
	if g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition and global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path" default:"contentbuilder.json" type:"path"`
	Root        string           `short:"r" help:"Working root that relative paths resolve against" default:"." type:"path"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	ShowVersion kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Run the full pipeline: ingest, flatten, index, articles, enumerate, render"`
	Ingest   IngestCmd   `cmd:"" help:"Clone sources and copy their mapped subtrees into the working root"`
	Flatten  FlattenCmd  `cmd:"" help:"Flatten media directories into the shared media output"`
	Entities EntitiesCmd `cmd:"" help:"List every addressable page without rendering"`
	Render   RenderCmd   `cmd:"" help:"Render preview artifacts for the current working tree"`
	Watch    WatchCmd    `cmd:"" help:"Re-run the local stages whenever content changes"`
	Schedule ScheduleCmd `cmd:"" help:"Run the full pipeline on a fixed interval"`
	History  HistoryCmd  `cmd:"" help:"Show recorded runs or the results of one run"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// AfterApply runs after flag parsing; set up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)})))
	return nil
}

// parseLogLevel honours --verbose first, then LogLevelEnvVar.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnvVar))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newPipeline loads the configuration and prepares a pipeline on the
// working root.
func newPipeline(root *CLI, opts pipeline.Options) (*pipeline.Pipeline, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, root.Root, opts)
}

// progressLogger logs render progress every tenth of the batch.
func progressLogger() func(completed, total int) {
	return func(completed, total int) {
		step := max(total/10, 1)
		if completed%step == 0 || completed == total {
			slog.Info("Render progress", slog.Int("completed", completed), slog.Int("total", total))
		}
	}
}
