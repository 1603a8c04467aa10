package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/wudi/pdfium/document"
	"github.com/wudi/pdfium/ocr"
	"github.com/wudi/pdfium/observability"
)

const (
	flagPage = "page"
	flagOCR  = "ocr"
)

func textCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "text",
		Usage:     "Print the text of one page or of every page",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagPage,
				Usage: "page number starting at 1, every page when omitted",
			},
			&cli.BoolFlag{
				Name:  flagOCR,
				Usage: "recognize pages without extractable text",
			},
		},
		Action: func(ctx *cli.Context) error {
			o, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer o.Close()

			var rec *ocr.Recognizer
			if ctx.Bool(flagOCR) {
				eng := rt.ocrEngine
				if eng == nil {
					eng = ocr.DefaultEngine()
				}
				if !ocr.HasEngine(eng) {
					return errors.New("no OCR engine available, build with -tags tesseract")
				}
				rec = &ocr.Recognizer{
					Engine:    eng,
					DPI:       rt.conf.OCR.DPI,
					Languages: rt.conf.OCR.Languages,
					Options:   ocr.EngineOptions(rt.conf.OCR.PageSegMode, rt.conf.OCR.Whitelist),
					Logger:    observability.NewSlogLogger(rt.log),
				}
			}

			w := ctx.App.Writer
			if ctx.IsSet(flagPage) {
				index, err := pageArg(ctx, o.doc)
				if err != nil {
					return err
				}
				p, err := o.doc.OpenPage(index)
				if err != nil {
					return errors.WithStack(err)
				}
				defer p.Close()
				text, err := rt.pageText(ctx, rec, p)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, text)
				return nil
			}

			return errors.WithStack(o.doc.Pages(func(p *document.Page) error {
				text, err := rt.pageText(ctx, rec, p)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "=== Page %d ===\n%s\n", p.Index()+1, text)
				return nil
			}))
		},
	}
}

// pageText extracts the text of p. Without a recognizer, pages whose text
// cannot be extracted are reported and left empty.
func (rt *runtime) pageText(ctx *cli.Context, rec *ocr.Recognizer, p *document.Page) (string, error) {
	if rec != nil {
		text, fromOCR, err := rec.Text(ctx.Context, p)
		if err != nil {
			return "", errors.Wrapf(err, "page %d", p.Index()+1)
		}
		if fromOCR {
			rt.log.InfoContext(ctx.Context, "page recognized", slog.Int("page", p.Index()+1))
		}
		return strings.TrimRight(text, "\n"), nil
	}

	tp, err := p.OpenText()
	if errors.Is(err, document.ErrUnsupportedContent) {
		rt.log.WarnContext(ctx.Context, "page has no extractable text, use --ocr", slog.Int("page", p.Index()+1))
		return "", nil
	}
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer tp.Close()
	n, err := tp.CharCount()
	if err != nil {
		return "", errors.WithStack(err)
	}
	text, err := tp.Text(0, n)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return text, nil
}
