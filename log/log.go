// Package log is the structured logger shared by the tracer, the run history
// store and the syncprim command. It wraps logrus and tags every entry with
// the caller position.
package log

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level names accepted by SetLevel.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Logger is the logging surface used across the module.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)

	// WithField returns a logger that adds key=value to every entry.
	WithField(key string, value any) Logger

	SetLevel(level string)
	GetLevel() string
	SetOutput(out io.Writer)
}

// LoggerImpl implements Logger over a logrus.Logger.
type LoggerImpl struct {
	mu     sync.Mutex
	l      *logrus.Logger
	fields logrus.Fields
}

// New returns a text logger writing to stderr at info level.
func New() *LoggerImpl {
	l := &LoggerImpl{l: logrus.New()}
	l.l.Out = os.Stderr
	l.SetLevel(InfoLevel)
	return l
}

// Discard returns a logger that writes nowhere.
func Discard() *LoggerImpl {
	l := New()
	l.l.Out = io.Discard
	l.l.Level = logrus.PanicLevel
	return l
}

func (l *LoggerImpl) decorate(skip int) *logrus.Entry {
	entry := logrus.NewEntry(l.l).WithFields(l.fields)
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return entry
	}
	path := strings.Split(file, string(os.PathSeparator))
	if len(path) > 3 {
		path = path[len(path)-3:]
	}
	position := fmt.Sprintf("%s:%d", strings.Join(path, string(os.PathSeparator)), line)
	entry = entry.WithField("position", position)
	if fn := runtime.FuncForPC(pc); fn != nil {
		entry = entry.WithField("func", fn.Name())
	}
	return entry
}

func (l *LoggerImpl) Debug(format string, v ...any) {
	if l.l.IsLevelEnabled(logrus.DebugLevel) {
		l.decorate(2).Debugf(format, v...)
	}
}

func (l *LoggerImpl) Info(format string, v ...any) {
	if l.l.IsLevelEnabled(logrus.InfoLevel) {
		l.decorate(2).Infof(format, v...)
	}
}

func (l *LoggerImpl) Warn(format string, v ...any) {
	if l.l.IsLevelEnabled(logrus.WarnLevel) {
		l.decorate(2).Warnf(format, v...)
	}
}

func (l *LoggerImpl) Error(format string, v ...any) {
	if l.l.IsLevelEnabled(logrus.ErrorLevel) {
		l.decorate(2).Errorf(format, v...)
	}
}

// WithField returns a child logger sharing the output and level of l.
func (l *LoggerImpl) WithField(key string, value any) Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &LoggerImpl{l: l.l, fields: fields}
}

// SetLevel sets the minimum level. Unknown names select info.
func (l *LoggerImpl) SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.l.SetLevel(lvl)
}

func (l *LoggerImpl) GetLevel() string {
	return l.l.GetLevel().String()
}

func (l *LoggerImpl) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.l.SetOutput(out)
}

// SetFormatter replaces the logrus formatter, e.g. with &logrus.JSONFormatter{}.
func (l *LoggerImpl) SetFormatter(formatter logrus.Formatter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.l.SetFormatter(formatter)
}
