package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

const Prefix = "PDFIUM_"

type Config struct {
	Logger Logger `envPrefix:"LOGGER_"`
	Engine Engine `envPrefix:"ENGINE_"`
	Cache  Cache  `envPrefix:"CACHE_"`
	OCR    OCR    `envPrefix:"OCR_"`
	Render Render `envPrefix:"RENDER_"`
}

func Parse() (*Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// ParseFrom reads the configuration from environ instead of the process
// environment.
func ParseFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	conf, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) Validate() error {
	if _, err := c.Logger.SlogLevel(); err != nil {
		return err
	}
	switch c.Engine.Backend {
	case BackendPdfium, BackendMemory:
	default:
		return errors.Errorf("unknown engine backend %q", c.Engine.Backend)
	}
	if _, err := c.Engine.Lock(); err != nil {
		return err
	}
	if c.Cache.PageSizes < 0 {
		return errors.Errorf("negative page size cache %d", c.Cache.PageSizes)
	}
	if c.OCR.DPI <= 0 || c.Render.DPI <= 0 {
		return errors.Errorf("dpi must be positive (ocr %d, render %d)", c.OCR.DPI, c.Render.DPI)
	}
	if c.OCR.PageSegMode < -1 || c.OCR.PageSegMode > 13 {
		return errors.Errorf("unknown page segmentation mode %d", c.OCR.PageSegMode)
	}
	return nil
}
