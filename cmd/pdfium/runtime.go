package main

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"github.com/wudi/pdfium/config"
	"github.com/wudi/pdfium/document"
	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/observability"
	"github.com/wudi/pdfium/ocr"
	"github.com/wudi/pdfium/source"
)

// runtime carries what the commands share once the global flags have been
// applied.
type runtime struct {
	fs        afero.Fs
	newEngine func(backend string) (engine.Engine, error)
	// environ replaces the process environment when set.
	environ map[string]string
	// ocrEngine replaces ocr.DefaultEngine when set.
	ocrEngine ocr.Engine

	conf *config.Config
	log  *slog.Logger
}

func (rt *runtime) setup(ctx *cli.Context) error {
	var (
		conf *config.Config
		err  error
	)
	if rt.environ != nil {
		conf, err = config.ParseFrom(rt.environ)
	} else {
		conf, err = config.Parse()
	}
	if err != nil {
		return errors.Wrap(err, "could not parse configuration")
	}

	if ctx.IsSet(flagLogLevel) {
		conf.Logger.Level = ctx.String(flagLogLevel)
	}
	if ctx.IsSet(flagEngine) {
		conf.Engine.Backend = ctx.String(flagEngine)
	}
	if ctx.IsSet(flagPassword) {
		conf.Engine.Password = ctx.String(flagPassword)
	}
	if ctx.IsSet(flagLockMode) {
		conf.Engine.LockMode = ctx.String(flagLockMode)
	}
	if err := conf.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	level, _ := conf.Logger.SlogLevel()
	rt.log = newLogger(ctx.App.ErrWriter, conf.Logger.Format, level)
	rt.conf = conf

	rt.log.DebugContext(ctx.Context, "using configuration",
		slog.String("engine", conf.Engine.Backend),
		slog.String("lock", conf.Engine.LockMode),
		slog.Int("page_size_cache", conf.Cache.PageSizes))
	return nil
}

func (rt *runtime) logger() *slog.Logger {
	if rt.log != nil {
		return rt.log
	}
	return slog.Default()
}

// opened is a document together with the resources backing it.
type opened struct {
	doc  *document.Document
	file *source.File
	eng  engine.Engine
}

func (o *opened) Close() {
	o.doc.Close()
	o.file.Close()
	closeEngine(o.eng)
}

// open opens the document named by the first positional argument.
func (rt *runtime) open(ctx *cli.Context) (*opened, error) {
	name := ctx.Args().First()
	if name == "" {
		return nil, errors.New("missing document path")
	}

	eng, err := rt.newEngine(rt.conf.Engine.Backend)
	if err != nil {
		return nil, errors.Wrapf(err, "could not start %s engine", rt.conf.Engine.Backend)
	}

	file, err := source.Open(rt.fs, name)
	if err != nil {
		closeEngine(eng)
		return nil, errors.WithStack(err)
	}

	opts := append(rt.conf.DocumentOptions(), document.WithLogger(observability.NewSlogLogger(rt.log)))
	doc, err := document.Open(eng, file, opts...)
	if err != nil {
		file.Close()
		closeEngine(eng)
		return nil, errors.Wrapf(err, "could not open %s", name)
	}

	rt.log.DebugContext(ctx.Context, "document opened", slog.String("file", name), slog.Int64("size", file.Size()))
	return &opened{doc: doc, file: file, eng: eng}, nil
}

func closeEngine(eng engine.Engine) {
	if c, ok := eng.(io.Closer); ok {
		c.Close()
	}
}

// pageArg turns the one based --page flag into a page index.
func pageArg(ctx *cli.Context, doc *document.Document) (int, error) {
	number := ctx.Int(flagPage)
	n, err := doc.PageCount()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if number < 1 || number > n {
		return 0, errors.Errorf("page %d out of range, document has %d pages", number, n)
	}
	return number - 1, nil
}
