package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/wudi/pdfium/document"
	"github.com/wudi/pdfium/source"
)

func infoCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print format version, metadata and page sizes",
		ArgsUsage: "<file>",
		Action: func(ctx *cli.Context) error {
			o, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer o.Close()

			w := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "File:\t%s (%s)\n", o.file.Name(), humanize.Bytes(uint64(o.file.Size())))
			if mime, err := source.Sniff(o.file); err == nil {
				fmt.Fprintf(w, "Type:\t%s\n", mime.String())
			}
			fmt.Fprintf(w, "Engine:\t%s\n", rt.conf.Engine.Backend)

			version, err := o.doc.FormatVersion()
			if err != nil {
				return errors.WithStack(err)
			}
			fmt.Fprintf(w, "Version:\t%d.%d\n", version/10, version%10)

			n, err := o.doc.PageCount()
			if err != nil {
				return errors.WithStack(err)
			}
			fmt.Fprintf(w, "Pages:\t%s\n", humanize.Comma(int64(n)))

			for _, key := range document.MetaKeys {
				value, err := o.doc.Metadata(key)
				if err != nil {
					return errors.WithStack(err)
				}
				if value != "" {
					fmt.Fprintf(w, "%s:\t%s\n", key, value)
				}
			}

			for i := 0; i < n; i++ {
				size, err := o.doc.PageSize(i)
				if err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintf(w, "Page %d:\t%s pt\n", i+1, size)
			}
			return errors.WithStack(w.Flush())
		},
	}
}
