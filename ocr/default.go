package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoEngine is returned by the placeholder engine used until one is
// registered with SetDefaultEngine.
var ErrNoEngine = errors.New("ocr: no engine registered")

var (
	defaultMu     sync.RWMutex
	defaultEngine Engine = unavailable{}
)

// DefaultEngine returns the engine registered by SetDefaultEngine. Importing
// the tesseract subpackage registers tesseract.
func DefaultEngine() Engine {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultEngine
}

// SetDefaultEngine replaces the default engine. A nil engine restores the
// placeholder.
func SetDefaultEngine(engine Engine) {
	if engine == nil {
		engine = unavailable{}
	}
	defaultMu.Lock()
	defaultEngine = engine
	defaultMu.Unlock()
}

// HasEngine reports whether engine can recognize anything, i.e. it is not
// nil and not the placeholder.
func HasEngine(engine Engine) bool {
	if engine == nil {
		return false
	}
	_, placeholder := engine.(unavailable)
	return !placeholder
}

// RecognizeAll runs engine over inputs. A BatchEngine gets them in one call;
// otherwise they are recognized in order and the first failure stops the
// run.
func RecognizeAll(ctx context.Context, engine Engine, inputs []Input) ([]Result, error) {
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

type unavailable struct{}

func (unavailable) Name() string { return "none" }

func (unavailable) Recognize(context.Context, Input) (Result, error) {
	return Result{}, ErrNoEngine
}
