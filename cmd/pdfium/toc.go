package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/wudi/pdfium/outline"
)

const flagFormat = "format"

func tocCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "toc",
		Usage:     "Print the document outline",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagFormat,
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "output format: text, markdown or html",
			},
		},
		Action: func(ctx *cli.Context) error {
			format := ctx.String(flagFormat)
			switch format {
			case "text", "markdown", "html":
			default:
				return errors.Errorf("unknown format %q", format)
			}

			o, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer o.Close()

			nodes, err := outline.FromDocument(ctx.Context, o.doc)
			if err != nil {
				return errors.WithStack(err)
			}

			w := ctx.App.Writer
			switch format {
			case "markdown":
				return errors.WithStack(outline.Markdown(w, nodes))
			case "html":
				return errors.WithStack(outline.HTML(w, nodes))
			}
			for _, e := range outline.Flatten(nodes) {
				indent := strings.Repeat("  ", e.Depth)
				if e.Label == "" {
					fmt.Fprintf(w, "%s%s\n", indent, e.Title)
					continue
				}
				fmt.Fprintf(w, "%s%s .... %s\n", indent, e.Title, e.Label)
			}
			return nil
		},
	}
}
