// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a text logger at the given level writing to out (stderr when
// nil). An unknown level falls back to info and reports false.
func New(level string, out io.Writer) (*logrus.Logger, bool) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	ok := true
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		ok = level == ""
	}
	l.SetLevel(lvl)
	return l, ok
}
