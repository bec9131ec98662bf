package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel accepts debug, info, warn or error in any case; anything else is INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	}
	return INFO
}

var (
	mu     sync.RWMutex
	logger = log.New(os.Stderr, "", log.LstdFlags)
	level  = INFO
)

func SetLevel(l LogLevel) {
	mu.Lock()
	level = l
	mu.Unlock()
}

func Level() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetOutput redirects all log output, e.g. to io.Discard in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = log.New(w, "", log.LstdFlags)
	mu.Unlock()
}

func LogDebug(format string, args ...any) { logMessage(DEBUG, format, args...) }

func LogInfo(format string, args ...any) { logMessage(INFO, format, args...) }

func LogWarn(format string, args ...any) { logMessage(WARN, format, args...) }

func LogError(format string, args ...any) { logMessage(ERROR, format, args...) }

func logMessage(l LogLevel, format string, args ...any) {
	mu.RLock()
	lg, threshold := logger, level
	mu.RUnlock()
	if l < threshold {
		return
	}
	lg.Printf("[%s] %s", l, fmt.Sprintf(format, args...))
}
