package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/wudi/pdfium/document"
)

const (
	flagMatchCase = "match-case"
	flagWholeWord = "whole-word"
	flagReverse   = "reverse"
)

func searchCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "List the matches of a needle on a page",
		ArgsUsage: "<file> <needle>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagPage,
				Value: 1,
				Usage: "page number starting at 1",
			},
			&cli.BoolFlag{
				Name:  flagMatchCase,
				Usage: "match case exactly",
			},
			&cli.BoolFlag{
				Name:  flagWholeWord,
				Usage: "match whole words only",
			},
			&cli.BoolFlag{
				Name:  flagReverse,
				Usage: "walk the matches from the end of the page",
			},
		},
		Action: func(ctx *cli.Context) error {
			needle := ctx.Args().Get(1)
			if needle == "" {
				return errors.New("missing search needle")
			}

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
			tp, err := p.OpenText()
			if err != nil {
				return errors.WithStack(err)
			}
			defer tp.Close()

			flags := document.SearchFlags{
				MatchCase: ctx.Bool(flagMatchCase),
				WholeWord: ctx.Bool(flagWholeWord),
			}
			start, step := 0, (*document.SearchSession).Next
			if ctx.Bool(flagReverse) {
				start, step = document.SearchFromEnd, (*document.SearchSession).Prev
			}
			s, err := tp.Search(needle, flags, start)
			if err != nil {
				return errors.WithStack(err)
			}
			defer s.Close()

			w := ctx.App.Writer
			matches := 0
			for {
				ok, err := step(s)
				if err != nil {
					return errors.WithStack(err)
				}
				if !ok {
					break
				}
				res, err := s.Result()
				if err != nil {
					return errors.WithStack(err)
				}
				text, err := tp.Text(res.Start, res.Count)
				if err != nil {
					return errors.WithStack(err)
				}
				rects, err := tp.Bounds(res.Start, res.Count)
				if err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintf(w, "%d+%d\t%q", res.Start, res.Count, text)
				for _, r := range rects {
					fmt.Fprintf(w, "\t[%.1f %.1f %.1f %.1f]", r.Left, r.Top, r.Right, r.Bottom)
				}
				fmt.Fprintln(w)
				matches++
			}
			rt.log.DebugContext(ctx.Context, "search done", "needle", needle, "matches", matches, "state", s.State().String())
			return nil
		},
	}
}
