package mvl

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Minimally Viable Logger. Packages log through this instead of logrus
// directly so the formatter and level are decided in one place.

func SetSimpleFormat() {
	logrus.SetFormatter(&formatter{})
}

type formatter struct {
}

// Format prints "15:04:05 message [key=value ...]" with the supervision
// fields first and the logger name dropped.
func (f formatter) Format(entry *logrus.Entry) ([]byte, error) {
	msg := entry.Message
	for _, key := range []string{"command", "pid", "id"} {
		if v, ok := entry.Data[key]; ok && v != "" {
			msg += fmt.Sprintf(" [%s=%v]", key, v)
		}
	}

	var rest []string
	for k, v := range entry.Data {
		switch k {
		case "logger", "command", "pid", "id":
			continue
		}
		rest = append(rest, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(rest)
	if len(rest) > 0 {
		msg += " [" + strings.Join(rest, " ") + "]"
	}

	return []byte(fmt.Sprintf("%s %s\n",
		entry.Time.Format(time.TimeOnly),
		msg)), nil
}

func SetDebug() {
	logrus.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint: os.Getenv("SHELLEXEC_JSON_LOG_SINGLE_LINE") != "true",
	})
	logrus.SetLevel(logrus.DebugLevel)
}

func SetError() {
	logrus.SetLevel(logrus.ErrorLevel)
}

func SetOutput(out io.Writer) {
	logrus.SetOutput(out)
}

// Package returns a logger named after the calling package's directory,
// relative to the module root.
func Package() Logger {
	_, p, _, _ := runtime.Caller(1)
	_, suffix, _ := strings.Cut(p, "shellexec")
	i := strings.LastIndex(suffix, "/")
	if i > 0 {
		return New(suffix[:i])
	}
	return New(p)
}

func New(name string) Logger {
	var fields logrus.Fields
	if name != "" {
		fields = logrus.Fields{
			"logger": name,
		}
	}
	return Logger{
		log:    logrus.StandardLogger(),
		fields: fields,
	}
}

type Logger struct {
	log    *logrus.Logger
	fields logrus.Fields
}

// Fields returns a child logger with the given key/value pairs added.
func (l *Logger) Fields(kv ...any) *Logger {
	newFields := logrus.Fields{}
	for k, v := range l.fields {
		newFields[k] = v
	}
	for i, v := range kv {
		if i%2 == 1 {
			newFields[kv[i-1].(string)] = v
		}
	}
	return &Logger{
		log:    l.log,
		fields: newFields,
	}
}

func (l *Logger) Infof(msg string, args ...any) {
	l.log.WithFields(l.fields).Infof(msg, args...)
}

func (l *Logger) Errorf(msg string, args ...any) {
	l.log.WithFields(l.fields).Errorf(msg, args...)
}

func (l *Logger) Warnf(msg string, args ...any) {
	l.log.WithFields(l.fields).Warnf(msg, args...)
}

func (l *Logger) IsDebug() bool {
	return l.log.IsLevelEnabled(logrus.DebugLevel)
}

func (l *Logger) Debugf(msg string, args ...any) {
	l.log.WithFields(l.fields).Debugf(msg, args...)
}
