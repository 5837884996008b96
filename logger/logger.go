// Package logger writes leveled logs to the console or syslog and to a file, and keeps
// the newest entries in memory for the admin API.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/op/go-logging"
	"github.com/visioweb/askboard/config"
	"go.uber.org/atomic"
)

const (
	moduleName  = "askboard"
	logFileName = "askboard.log"
	stampLayout = "2006/01/02 15:04:05"

	maxLogBufferSize = 10240
)

type entry struct {
	at    string
	level logging.Level
	text  string
}

var (
	current atomic.Pointer[logging.Logger]

	fileMu  sync.Mutex
	logFile *os.File

	bufferMu  sync.Mutex
	logBuffer []entry
)

// InitLogger sends entries at level and above to the console (syslog outside debug mode),
// and every entry to the log file.
func InitLogger(level logging.Level) {
	var backends []logging.Backend
	if b := consoleBackend(); b != nil {
		backends = append(backends, withLevel(b, level))
	}
	if b := fileBackend(); b != nil {
		backends = append(backends, withLevel(b, logging.DEBUG))
	}

	l := logging.MustGetLogger(moduleName)
	l.SetBackend(logging.MultiLogger(backends...))
	current.Store(l)
}

// ParseLevel maps a config log level to a go-logging level.
func ParseLevel(level config.LogLevel) (logging.Level, error) {
	switch level {
	case config.Debug:
		return logging.DEBUG, nil
	case config.Info:
		return logging.INFO, nil
	case config.Notice:
		return logging.NOTICE, nil
	case config.Warn:
		return logging.WARNING, nil
	case config.Error:
		return logging.ERROR, nil
	}
	return logging.INFO, fmt.Errorf("unknown log level: %s", level)
}

func withLevel(b logging.Backend, level logging.Level) logging.LeveledBackend {
	leveled := logging.AddModuleLevel(b)
	leveled.SetLevel(level, moduleName)
	return leveled
}

func consoleBackend() logging.Backend {
	stderr := func(stamped bool) logging.Backend {
		return logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), formatter(stamped))
	}
	if runtime.GOOS == "windows" || config.IsDebug() {
		return stderr(true)
	}
	syslog, err := logging.NewSyslogBackend("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "syslog unavailable, logging to stderr: %v\n", err)
		return stderr(os.Getppid() > 0)
	}
	// syslog stamps entries itself
	return logging.NewBackendFormatter(syslog, formatter(false))
}

// fileBackend truncates the log file on every start.
func fileBackend() logging.Backend {
	dir := config.GetLogFolder()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create log folder %s: %v\n", dir, err)
		return nil
	}
	path := filepath.Join(dir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o660)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", path, err)
		return nil
	}

	fileMu.Lock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	fileMu.Unlock()

	return logging.NewBackendFormatter(logging.NewLogBackend(f, "", 0), formatter(true))
}

func formatter(stamped bool) logging.Formatter {
	if stamped {
		return logging.MustStringFormatter(`%{time:` + stampLayout + `} %{level} - %{message}`)
	}
	return logging.MustStringFormatter(`%{level} - %{message}`)
}

// CloseLogger closes the log file.
func CloseLogger() {
	fileMu.Lock()
	defer fileMu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func emit(level logging.Level, text string) {
	if l := current.Load(); l != nil {
		switch level {
		case logging.DEBUG:
			l.Debug(text)
		case logging.INFO:
			l.Info(text)
		case logging.NOTICE:
			l.Notice(text)
		case logging.WARNING:
			l.Warning(text)
		default:
			l.Error(text)
		}
	}
	remember(level, text)
}

func Debug(args ...any) {
	emit(logging.DEBUG, fmt.Sprint(args...))
}

func Debugf(format string, args ...any) {
	emit(logging.DEBUG, fmt.Sprintf(format, args...))
}

func Info(args ...any) {
	emit(logging.INFO, fmt.Sprint(args...))
}

func Infof(format string, args ...any) {
	emit(logging.INFO, fmt.Sprintf(format, args...))
}

func Notice(args ...any) {
	emit(logging.NOTICE, fmt.Sprint(args...))
}

func Noticef(format string, args ...any) {
	emit(logging.NOTICE, fmt.Sprintf(format, args...))
}

func Warning(args ...any) {
	emit(logging.WARNING, fmt.Sprint(args...))
}

func Warningf(format string, args ...any) {
	emit(logging.WARNING, fmt.Sprintf(format, args...))
}

func Error(args ...any) {
	emit(logging.ERROR, fmt.Sprint(args...))
}

func Errorf(format string, args ...any) {
	emit(logging.ERROR, fmt.Sprintf(format, args...))
}

// remember appends to the in-memory buffer, dropping the oldest entry when it is full.
func remember(level logging.Level, text string) {
	e := entry{at: time.Now().Format(stampLayout), level: level, text: text}

	bufferMu.Lock()
	defer bufferMu.Unlock()
	if len(logBuffer) >= maxLogBufferSize {
		logBuffer = logBuffer[1:]
	}
	logBuffer = append(logBuffer, e)
}

// GetLogs returns up to count buffered entries at level or more severe, newest first.
// An unknown level matches everything.
func GetLogs(count int, level string) []string {
	if count <= 0 {
		return []string{}
	}
	threshold, err := logging.LogLevel(level)
	if err != nil {
		threshold = logging.DEBUG
	}

	bufferMu.Lock()
	defer bufferMu.Unlock()
	out := make([]string, 0, min(count, len(logBuffer)))
	for i := len(logBuffer) - 1; i >= 0 && len(out) < count; i-- {
		e := logBuffer[i]
		if e.level <= threshold {
			out = append(out, fmt.Sprintf("%s %s - %s", e.at, e.level, e.text))
		}
	}
	return out
}
