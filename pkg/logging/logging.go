package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Config selects level, formatter and output of a logger.
type Config struct {
	Level  string
	Format string
	// Output is "stdout", "stderr" or empty for stderr.
	Output string
}

// New builds a logger from c. Level defaults to info and format to text.
func New(c Config) (*logrus.Logger, error) {
	l := logrus.New()

	level := logrus.InfoLevel
	if c.Level != "" {
		parsed, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
		level = parsed
	}
	l.SetLevel(level)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", c.Format)
	}

	out, err := output(c.Output)
	if err != nil {
		return nil, err
	}
	l.SetOutput(out)
	return l, nil
}

func output(name string) (io.Writer, error) {
	switch name {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	return nil, fmt.Errorf("invalid log output %q", name)
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
