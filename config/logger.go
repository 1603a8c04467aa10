package config

import (
	"log/slog"

	"github.com/pkg/errors"
)

type Logger struct {
	Level  string `env:"LEVEL,expand" envDefault:"info"`
	Format string `env:"FORMAT,expand" envDefault:"text"`
}

func (l Logger) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, errors.Wrapf(err, "logger level %q", l.Level)
	}
	return level, nil
}
