package main

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/wudi/pdfium/bitmap"
	"github.com/wudi/pdfium/document"
	"github.com/wudi/pdfium/geometry"
)

const (
	flagOut         = "out"
	flagWidth       = "width"
	flagHeight      = "height"
	flagDPI         = "dpi"
	flagRotate      = "rotate"
	flagAnnotations = "annotations"
	flagGrayscale   = "grayscale"
	flagRGB565      = "rgb565"
	flagThumbnail   = "thumbnail"
)

func renderCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render a page to a PNG file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagPage,
				Value: 1,
				Usage: "page number starting at 1",
			},
			&cli.StringFlag{
				Name:     flagOut,
				Aliases:  []string{"o"},
				Required: true,
				Usage:    "output PNG file",
			},
			&cli.IntFlag{
				Name:  flagWidth,
				Usage: "bitmap width in pixels, derived from the page size when omitted",
			},
			&cli.IntFlag{
				Name:  flagHeight,
				Usage: "bitmap height in pixels, derived from the page size when omitted",
			},
			&cli.IntFlag{
				Name:  flagDPI,
				Usage: "resolution used to derive the bitmap size (default from PDFIUM_RENDER_DPI)",
			},
			&cli.IntFlag{
				Name:  flagRotate,
				Usage: "clockwise rotation in degrees: 0, 90, 180 or 270",
			},
			&cli.BoolFlag{
				Name:  flagAnnotations,
				Usage: "draw annotations",
			},
			&cli.BoolFlag{
				Name:  flagGrayscale,
				Usage: "render in shades of gray",
			},
			&cli.BoolFlag{
				Name:  flagRGB565,
				Usage: "render into a 16 bit RGB565 bitmap",
			},
			&cli.IntFlag{
				Name:  flagThumbnail,
				Usage: "scale the result down to this width",
			},
		},
		Action: func(ctx *cli.Context) error {
			rot, err := rotationArg(ctx.Int(flagRotate))
			if err != nil {
				return err
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

			dpi := rt.conf.Render.DPI
			if ctx.IsSet(flagDPI) {
				dpi = ctx.Int(flagDPI)
			}
			pw, ph := p.Size()
			width, height := bitmapSize(pw, ph, rot, dpi, ctx.Int(flagWidth), ctx.Int(flagHeight))
			if width <= 0 || height <= 0 {
				return errors.Errorf("invalid bitmap size %dx%d", width, height)
			}

			var buf bitmap.Buffer
			if ctx.Bool(flagRGB565) {
				buf = bitmap.NewRGB565(width, height)
			} else {
				buf = bitmap.NewRGBA(width, height)
			}
			if err := bitmap.Fill(buf, image.Rect(0, 0, width, height), color.White); err != nil {
				return errors.WithStack(err)
			}

			opts := document.RenderOptions{
				Annotations: ctx.Bool(flagAnnotations),
				Grayscale:   ctx.Bool(flagGrayscale),
				Rotation:    rot,
			}
			start := time.Now()
			if err := p.Render(buf, 0, 0, width, height, opts); err != nil {
				return errors.WithStack(err)
			}
			rt.log.DebugContext(ctx.Context, "page rendered",
				slog.Int("page", index+1),
				slog.Int("width", width),
				slog.Int("height", height),
				slog.Duration("took", time.Since(start)))

			if tw := ctx.Int(flagThumbnail); tw > 0 {
				if buf, err = thumbnail(buf, tw); err != nil {
					return err
				}
			}

			out := ctx.String(flagOut)
			f, err := rt.fs.Create(out)
			if err != nil {
				return errors.WithStack(err)
			}
			if err := bitmap.EncodePNG(f, buf); err != nil {
				f.Close()
				return errors.Wrapf(err, "could not encode %s", out)
			}
			if err := f.Close(); err != nil {
				return errors.WithStack(err)
			}
			if info, err := rt.fs.Stat(out); err == nil {
				rt.log.InfoContext(ctx.Context, "wrote "+out, slog.String("size", humanize.Bytes(uint64(info.Size()))))
			}
			return nil
		},
	}
}

func rotationArg(degrees int) (geometry.Rotation, error) {
	if degrees%90 != 0 {
		return 0, errors.Errorf("rotation %d is not a multiple of 90", degrees)
	}
	return geometry.Rotation(degrees / 90).Normalize(), nil
}

// bitmapSize picks the device size for a page of pw x ph points. A missing
// dimension keeps the page's aspect ratio; both missing use dpi.
func bitmapSize(pw, ph float64, rot geometry.Rotation, dpi, width, height int) (int, int) {
	rw, rh := rot.RotatedExtent(pw, ph)
	switch {
	case width > 0 && height > 0:
		return width, height
	case width > 0:
		return width, int(math.Round(float64(width) * rh / rw))
	case height > 0:
		return int(math.Round(float64(height) * rw / rh)), height
	}
	scale := float64(dpi) / 72
	return int(math.Ceil(rw * scale)), int(math.Ceil(rh * scale))
}

func thumbnail(buf bitmap.Buffer, width int) (bitmap.Buffer, error) {
	img, err := bitmap.Image(buf)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	height := int(math.Round(float64(width) * float64(buf.Height()) / float64(buf.Width())))
	if height < 1 {
		height = 1
	}
	return bitmap.WrapRGBA(bitmap.Scale(img, width, height)), nil
}
