// Package logger handles operational output on stderr, keeping stdout clean
// for data output.
package logger

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// successField marks info entries rendered as successes
const successField = "success"

// Logger handles operational logging to stderr, keeping stdout clean for data output
type Logger struct {
	log   *logrus.Logger
	quiet bool
	debug bool
}

// New creates a new logger that writes to stderr
func New(quiet, debug bool) *Logger {
	colors := !color.NoColor && isatty.IsTerminal(os.Stderr.Fd())
	return newWithWriter(os.Stderr, quiet, debug, colors)
}

// NewWithWriter creates a logger that writes uncolored output to w
func NewWithWriter(w io.Writer, quiet, debug bool) *Logger {
	return newWithWriter(w, quiet, debug, false)
}

func newWithWriter(w io.Writer, quiet, debug, colors bool) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&plainFormatter{colors: colors})

	switch {
	case debug:
		l.SetLevel(logrus.DebugLevel)
	case quiet:
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	return &Logger{
		log:   l,
		quiet: quiet,
		debug: debug,
	}
}

// Infof logs an informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	if !l.quiet {
		l.log.Infof(format, args...)
	}
}

// Successf logs a success message
func (l *Logger) Successf(format string, args ...interface{}) {
	if !l.quiet {
		l.log.WithField(successField, true).Infof(format, args...)
	}
}

// Warningf logs a warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	if !l.quiet {
		l.log.Warnf(format, args...)
	}
}

// Errorf logs an error message (always shown, even in quiet mode)
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

// Debugf logs a debug message (only shown when debug mode is enabled)
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.debug {
		l.log.Debugf(format, args...)
	}
}

// Println prints a blank line (for spacing)
func (l *Logger) Println() {
	if !l.quiet {
		l.log.Info("")
	}
}

// plainFormatter renders entries as bare lines with a level prefix
type plainFormatter struct {
	colors bool
}

func (f *plainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var prefix string
	var paint *color.Color

	switch entry.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		prefix = "DEBUG: "
	case logrus.WarnLevel:
		prefix, paint = "Warning: ", color.New(color.FgYellow)
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		prefix, paint = "Error: ", color.New(color.FgRed)
	default:
		if success, _ := entry.Data[successField].(bool); success {
			prefix, paint = "✓ ", color.New(color.FgGreen)
		}
	}

	if f.colors && paint != nil {
		prefix = paint.Sprint(prefix)
	}
	return []byte(prefix + entry.Message + "\n"), nil
}
