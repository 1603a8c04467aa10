package config

import (
	"github.com/pkg/errors"
	"github.com/wudi/pdfium/document"
)

const (
	BackendPdfium = "pdfium"
	BackendMemory = "memory"
)

type Engine struct {
	Backend  string `env:"BACKEND,expand" envDefault:"pdfium"`
	LockMode string `env:"LOCK_MODE,expand" envDefault:"global"`
	Password string `env:"PASSWORD,expand"`
}

func (e Engine) Lock() (document.LockMode, error) {
	switch e.LockMode {
	case "global", "":
		return document.LockGlobal, nil
	case "document":
		return document.LockPerDocument, nil
	}
	return 0, errors.Errorf("unknown lock mode %q", e.LockMode)
}

type Cache struct {
	PageSizes int `env:"PAGE_SIZES,expand" envDefault:"64"`
}

type OCR struct {
	Languages []string `env:"LANGUAGES,expand" envDefault:"eng" envSeparator:","`
	DPI       int      `env:"DPI,expand" envDefault:"300"`
	// PageSegMode is the tesseract page segmentation mode, -1 for the
	// engine default.
	PageSegMode int    `env:"PAGE_SEG_MODE,expand" envDefault:"-1"`
	Whitelist   string `env:"WHITELIST,expand"`
}

type Render struct {
	DPI int `env:"DPI,expand" envDefault:"150"`
}

// DocumentOptions translates the configuration into options for
// document.Open. Validate must have succeeded.
func (c *Config) DocumentOptions() []document.Option {
	lock, _ := c.Engine.Lock()
	opts := []document.Option{
		document.WithLockMode(lock),
		document.WithPageSizeCache(c.Cache.PageSizes),
	}
	if c.Engine.Password != "" {
		opts = append(opts, document.WithPassword(c.Engine.Password))
	}
	return opts
}
