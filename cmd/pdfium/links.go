package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/wudi/pdfium/document"
	"github.com/wudi/pdfium/outline"
)

func linksCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "links",
		Usage:     "List the links of a page",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagPage,
				Value: 1,
				Usage: "page number starting at 1",
			},
		},
		Action: func(ctx *cli.Context) error {
			o, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer o.Close()

			index, err := pageArg(ctx, o.doc)
			if err != nil {
				return err
			}
			p, err := o.doc.OpenPage(index)
			if err != nil {
				return errors.WithStack(err)
			}
			defer p.Close()

			links, err := p.Links()
			if err != nil {
				return errors.WithStack(err)
			}
			w := ctx.App.Writer
			for _, l := range links {
				b := l.Bounds
				fmt.Fprintf(w, "%d\t[%.1f %.1f %.1f %.1f]\t%s\n", l.Index, b.Left, b.Top, b.Right, b.Bottom, linkTarget(l))
			}
			return nil
		},
	}
}

func linkTarget(l document.Link) string {
	switch {
	case l.URI != "":
		return l.URI
	case l.TargetPage != document.NoTarget:
		return "page " + outline.Label(l.TargetPage)
	}
	return "-"
}
