// Package tesseract registers a libtesseract backed ocr.Engine as the
// default engine. Importing it requires the tesseract and leptonica
// development headers.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"sort"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/wudi/pdfium/ocr"
)

func init() {
	ocr.SetDefaultEngine(New())
}

// Engine runs every input on a fresh gosseract client so settings of one
// page never carry over to the next.
type Engine struct {
	newClient func() *gosseract.Client
}

func New() *Engine {
	return &Engine{newClient: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	img, err := regionImage(in.Image, in.Region)
	if err != nil {
		return ocr.Result{}, err
	}

	c := e.newClient()
	defer c.Close()
	if err := configure(c, in); err != nil {
		return ocr.Result{}, err
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize %s: %w", in.ID, err)
	}
	res := ocr.Result{InputID: in.ID, PlainText: strings.TrimSpace(text)}
	if len(in.Languages) > 0 {
		res.Language = in.Languages[0]
	}
	// Layout is best effort, the text alone is a usable result.
	if boxes, err := c.GetBoundingBoxesVerbose(); err == nil {
		res.Blocks = group(boxes)
	}
	return res, nil
}

// RecognizeBatch recognizes inputs in order and stops at the first failure.
func (e *Engine) RecognizeBatch(ctx context.Context, inputs []ocr.Input) ([]ocr.Result, error) {
	results := make([]ocr.Result, 0, len(inputs))
	for _, in := range inputs {
		res, err := e.Recognize(ctx, in)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func configure(c *gosseract.Client, in ocr.Input) error {
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return fmt.Errorf("set languages %v: %w", in.Languages, err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable("user_defined_dpi", strconv.Itoa(in.DPI)); err != nil {
			return fmt.Errorf("set dpi: %w", err)
		}
	}

	keys := make([]string, 0, len(in.Metadata))
	for k := range in.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := in.Metadata[k]
		var err error
		switch k {
		case ocr.VarPageSegMode:
			var mode int
			if mode, err = strconv.Atoi(v); err == nil {
				err = c.SetPageSegMode(gosseract.PageSegMode(mode))
			}
		case ocr.VarWhitelist:
			err = c.SetWhitelist(v)
		default:
			err = c.SetVariable(gosseract.SettableVariable(k), v)
		}
		if err != nil {
			return fmt.Errorf("set %s=%q: %w", k, v, err)
		}
	}
	return nil
}

type lineKey struct{ block, par, line int }

// group nests word boxes into lines and blocks by tesseract's block,
// paragraph and line numbers, keeping reading order.
func group(boxes []gosseract.BoundingBox) []ocr.TextBlock {
	var (
		blocks []ocr.TextBlock
		last   lineKey
	)
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		w := ocr.TextWord{Text: word, Bounds: ocr.RegionOf(b.Box), Confidence: b.Confidence / 100}
		key := lineKey{b.BlockNum, b.ParNum, b.LineNum}
		switch {
		case len(blocks) == 0 || key.block != last.block:
			blocks = append(blocks, ocr.TextBlock{})
			fallthrough
		case key != last:
			blk := &blocks[len(blocks)-1]
			blk.Lines = append(blk.Lines, ocr.TextLine{})
		}
		last = key
		blk := &blocks[len(blocks)-1]
		ln := &blk.Lines[len(blk.Lines)-1]
		ln.Words = append(ln.Words, w)
	}
	for i := range blocks {
		finishBlock(&blocks[i])
	}
	return blocks
}

func finishBlock(b *ocr.TextBlock) {
	texts := make([]string, 0, len(b.Lines))
	var sum float64
	var n int
	for i := range b.Lines {
		ln := &b.Lines[i]
		words := make([]string, 0, len(ln.Words))
		var lineSum float64
		for _, w := range ln.Words {
			words = append(words, w.Text)
			ln.Bounds = ln.Bounds.Union(w.Bounds)
			lineSum += w.Confidence
		}
		ln.Text = strings.Join(words, " ")
		ln.Confidence = lineSum / float64(len(ln.Words))
		b.Bounds = b.Bounds.Union(ln.Bounds)
		texts = append(texts, ln.Text)
		sum += lineSum
		n += len(ln.Words)
	}
	b.Text = strings.Join(texts, "\n")
	if n > 0 {
		b.Confidence = sum / float64(n)
	}
}

// regionImage cuts region out of the encoded image. A nil or empty region
// keeps the image as is.
func regionImage(data []byte, region *ocr.Region) ([]byte, error) {
	if region == nil || region.IsEmpty() {
		return data, nil
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	r := region.Rect().Intersect(src.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region %v outside image %v", region.Rect(), src.Bounds())
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode region: %w", err)
	}
	return buf.Bytes(), nil
}
