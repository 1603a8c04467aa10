// Command pdfium inspects documents through the document layer: metadata,
// outline, text, search, links and page rendering.
//
// Usage: pdfium [global flags] <command> [flags] <file> [args]
//
// Defaults come from PDFIUM_* environment variables; global flags override
// them. With --engine memory the file is a YAML document fixture.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"github.com/wudi/pdfium/config"
	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/engine/memengine"
	"github.com/wudi/pdfium/engine/pdfium"
)

const (
	flagLogLevel = "log-level"
	flagDebug    = "debug"
	flagEngine   = "engine"
	flagPassword = "password"
	flagLockMode = "lock-mode"
)

func main() {
	app := newApp(&runtime{fs: afero.NewOsFs(), newEngine: newEngine})
	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func newEngine(backend string) (engine.Engine, error) {
	switch backend {
	case config.BackendMemory:
		return memengine.New(), nil
	case config.BackendPdfium:
		return pdfium.New()
	}
	return nil, fmt.Errorf("unknown engine backend %q", backend)
}

func newApp(rt *runtime) *cli.App {
	app := &cli.App{
		Name:  "pdfium",
		Usage: "inspect and render PDF documents",
		Commands: []*cli.Command{
			infoCommand(rt),
			tocCommand(rt),
			textCommand(rt),
			searchCommand(rt),
			linksCommand(rt),
			renderCommand(rt),
		},
		Before: rt.setup,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "set logging level (default from PDFIUM_LOGGER_LEVEL)",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "print error stack traces",
			},
			&cli.StringFlag{
				Name:  flagEngine,
				Usage: "engine backend: pdfium or memory (default from PDFIUM_ENGINE_BACKEND)",
			},
			&cli.StringFlag{
				Name:    flagPassword,
				Aliases: []string{"p"},
				Usage:   "document password",
			},
			&cli.StringFlag{
				Name:  flagLockMode,
				Usage: "engine locking: global or document (default from PDFIUM_ENGINE_LOCK_MODE)",
			},
		},
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}
		log := rt.logger()
		if ctx.Bool(flagDebug) {
			log.ErrorContext(ctx.Context, fmt.Sprintf("%+v", err))
		} else {
			log.ErrorContext(ctx.Context, err.Error())
		}
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))
	return app
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
