// Package logx provides leveled, agent-prefixed logging for the simulation.
package logx

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Level identifies the severity of a log line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Color is an ANSI foreground color assigned to an agent for console output.
type Color int

// Agent colors rotate through the 31-36 ANSI range (red through cyan).
const (
	colorBase  = 31
	colorCount = 6
)

// ColorForIndex returns a stable color for the nth agent.
func ColorForIndex(i int) Color {
	return Color(colorBase + (i % colorCount))
}

// DebugConfig controls debug logging behavior.
type DebugConfig struct {
	Enabled bool
	Domains map[string]bool // Which domains to enable debug for (nil = all)
}

var (
	debugConfig = &DebugConfig{}
	debugMutex  sync.RWMutex

	// Color output only when stdout is an interactive terminal.
	stdoutIsTerminal = term.IsTerminal(int(os.Stdout.Fd()))
)

func init() { //nolint:gochecknoinits // Required for env var initialization
	initDebugFromEnv()
}

func initDebugFromEnv() {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	debugVal := os.Getenv("DEBUG")
	debugConfig.Enabled = debugVal == "1" || strings.EqualFold(debugVal, "true")

	if domains := os.Getenv("DEBUG_DOMAINS"); domains != "" {
		debugConfig.Domains = make(map[string]bool)
		for _, d := range strings.Split(domains, ",") {
			debugConfig.Domains[strings.TrimSpace(d)] = true
		}
	}
}

// SetDebug enables or disables debug logging globally.
func SetDebug(enabled bool) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugConfig.Enabled = enabled
}

func debugEnabled(domain string) bool {
	debugMutex.RLock()
	defer debugMutex.RUnlock()

	if !debugConfig.Enabled {
		return false
	}
	if debugConfig.Domains == nil {
		return true
	}
	return debugConfig.Domains[domain]
}

// Logger writes leveled log lines prefixed with an agent (or subsystem) ID.
type Logger struct {
	agentID string
	color   Color
	logger  *log.Logger
}

// NewLogger creates a logger for the given agent or subsystem ID.
func NewLogger(agentID string) *Logger {
	return &Logger{
		agentID: agentID,
		logger:  log.New(os.Stdout, "", log.LstdFlags),
	}
}

// NewColoredLogger creates a logger whose console output uses the given color.
func NewColoredLogger(agentID string, color Color) *Logger {
	l := NewLogger(agentID)
	l.color = color
	return l
}

func (l *Logger) logf(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	prefix := fmt.Sprintf("[%s] [%s]", l.agentID, level)
	if l.color != 0 && stdoutIsTerminal {
		prefix = fmt.Sprintf("\033[%dm%s\033[0m", l.color, prefix)
	}
	l.logger.Printf("%s %s", prefix, msg)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.logf(LevelError, format, args...)
}

// Debug logs a debug message if debug logging is enabled for this logger's ID.
func (l *Logger) Debug(format string, args ...any) {
	if !debugEnabled(l.agentID) {
		return
	}
	l.logf(LevelDebug, format, args...)
}
