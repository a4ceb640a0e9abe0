// Package logger writes levelled, timestamped lines to stdout and,
// optionally, appends the same lines to a file.
//
// Lines look like
//
//	[2024-05-01 12:00:00.000000] INFO: client,127.0.0.1:9443: connected
//
// Timestamps are UTC.  There is no filtering: every level is emitted.
// Logging never fails from the caller's point of view; a file that
// cannot be opened is reported on stderr by logrus and skipped.
package logger

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

// Level is the severity of a log line.  Levels are ordered.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelCritical
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelCritical:
		return "CRITICAL"
	case LevelFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// logrusLevel maps a Level onto logrus.  FATAL is emitted through
// Entry.Log, which never calls os.Exit.
func (l Level) logrusLevel() logrus.Level {
	switch l {
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarning:
		return logrus.WarnLevel
	case LevelFatal:
		return logrus.FatalLevel
	default:
		return logrus.ErrorLevel
	}
}

var levelColors = map[Level]*color.Color{
	LevelInfo:     newColor(color.FgCyan),
	LevelWarning:  newColor(color.FgYellow),
	LevelCritical: newColor(color.FgGreen),
	LevelFatal:    newColor(color.FgRed),
}

// newColor returns a colour that ignores color.NoColor; whether to
// colour at all is decided per formatter.
func newColor(a color.Attribute) *color.Color {
	c := color.New(a)
	c.EnableColor()
	return c
}

// Entry data keys.
const (
	keyName  = "name"
	keyLevel = "severity"
	keyFile  = "file"
)

// Logger is a named handle onto a shared logrus backend.  Loggers
// derived with [Logger.Named] share output, colour and default file.
type Logger struct {
	base   *logrus.Logger
	format *lineFormatter
	name   string
	file   string // default file destination ("" = none)
}

// Option configures a Logger.
type Option func(*Logger)

// WithOutput replaces stdout as the console destination.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.base.SetOutput(w) }
}

// WithFile sets a default file every line is appended to.  A per-call
// destination passed to [Logger.Log] takes precedence.
func WithFile(path string) Option {
	return func(l *Logger) { l.file = path }
}

// WithColor forces level colouring on or off.  By default colours are
// used only when stdout is a terminal.
func WithColor(on bool) Option {
	return func(l *Logger) { l.format.color = on }
}

// New returns a Logger writing to stdout.
func New(name string, opts ...Option) *Logger {
	f := &lineFormatter{color: !color.NoColor}
	base := logrus.New()
	base.SetOutput(colorable.NewColorableStdout())
	base.SetFormatter(f)
	base.SetLevel(logrus.TraceLevel)
	base.AddHook(&fileHook{})

	l := &Logger{base: base, format: f, name: name}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Named returns a child logger bound to name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{base: l.base, format: l.format, name: name, file: l.file}
}

// Name returns the name the logger is bound to.
func (l *Logger) Name() string { return l.name }

// SetOutput overrides the console writer for this logger and every
// logger derived from it.
func (l *Logger) SetOutput(w io.Writer) { l.base.SetOutput(w) }

// Log emits message at level.  If fileDestination is given, the line
// is also appended to that file instead of the default one.
func (l *Logger) Log(message string, level Level, fileDestination ...string) {
	file := l.file
	if len(fileDestination) > 0 && fileDestination[0] != "" {
		file = fileDestination[0]
	}
	fields := logrus.Fields{keyLevel: level}
	if l.name != "" {
		fields[keyName] = l.name
	}
	if file != "" {
		fields[keyFile] = file
	}
	l.base.WithFields(fields).Log(level.logrusLevel(), message)
}

// Info logs at INFO.
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...), LevelInfo)
}

// Warning logs at WARNING.
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...), LevelWarning)
}

// Critical logs at CRITICAL.
func (l *Logger) Critical(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...), LevelCritical)
}

// Fatal logs at FATAL.  It does not exit.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...), LevelFatal)
}

// ── package-level logger ─────────────────────────────────────────────

var (
	stdOnce sync.Once
	std     *Logger
)

// Default returns the process-wide unnamed logger.
func Default() *Logger {
	stdOnce.Do(func() { std = New("") })
	return std
}

// Log emits message through the default logger.
func Log(message string, level Level, fileDestination ...string) {
	Default().Log(message, level, fileDestination...)
}
