package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	lipglossv1 "github.com/charmbracelet/lipgloss"
	charmLog "github.com/charmbracelet/log"
)

// runtimeLogger fans log events to a styled console sink and an optional logfmt file sink.
type runtimeLogger struct {
	console        *charmLog.Logger
	file           *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	filePath       string
}

// newRuntimeLogger builds the console sink and, when fileEnabled and logDir are set, a daily file
// sink under logDir. A relative logDir is resolved against the enclosing workspace root.
func newRuntimeLogger(stderr io.Writer, appName string, level charmLog.Level, fileEnabled bool, logDir string, now func() time.Time) (*runtimeLogger, error) {
	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}
	logger := &runtimeLogger{
		console: charmLog.NewWithOptions(stderr, charmLog.Options{
			Level:           level,
			Prefix:          appName,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Formatter:       charmLog.TextFormatter,
		}),
		consoleEnabled: true,
	}
	logger.console.SetStyles(consoleStyles())
	if !fileEnabled || strings.TrimSpace(logDir) == "" {
		return logger, nil
	}

	path, err := logFilePath(logDir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.file = charmLog.NewWithOptions(f, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.closeFile = f.Close
	logger.filePath = path
	return logger, nil
}

// FilePath returns the active log file, or "".
func (l *runtimeLogger) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// SetConsoleEnabled toggles the console sink. The TUI turns it off while it owns the terminal.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l != nil {
		l.consoleEnabled = enabled
	}
}

// Close closes the file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	closeFn := l.closeFile
	l.closeFile = nil
	l.file = nil
	return closeFn()
}

func (l *runtimeLogger) log(level charmLog.Level, msg any, keyvals ...any) {
	if l == nil {
		return
	}
	if l.consoleEnabled && l.console != nil {
		l.console.Log(level, msg, keyvals...)
	}
	if l.file != nil {
		l.file.Log(level, msg, keyvals...)
	}
}

// Debug implements app.Logger.
func (l *runtimeLogger) Debug(msg any, keyvals ...any) { l.log(charmLog.DebugLevel, msg, keyvals...) }

// Info implements app.Logger.
func (l *runtimeLogger) Info(msg any, keyvals ...any) { l.log(charmLog.InfoLevel, msg, keyvals...) }

// Warn implements app.Logger.
func (l *runtimeLogger) Warn(msg any, keyvals ...any) { l.log(charmLog.WarnLevel, msg, keyvals...) }

// Error implements app.Logger.
func (l *runtimeLogger) Error(msg any, keyvals ...any) { l.log(charmLog.ErrorLevel, msg, keyvals...) }

// logFilePath returns <dir>/<app>-YYYYMMDD.log.
func logFilePath(dir, appName string, now time.Time) (string, error) {
	baseDir := strings.TrimSpace(dir)
	if !filepath.IsAbs(baseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		baseDir = filepath.Join(workspaceRootFrom(cwd), baseDir)
	}
	stem := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-").Replace(strings.TrimSpace(appName))
	stem = strings.Trim(stem, "-")
	if stem == "" {
		stem = "skadi"
	}
	return filepath.Join(filepath.Clean(baseDir), fmt.Sprintf("%s-%s.log", stem, now.Format("20060102"))), nil
}

// workspaceRootFrom walks up from start to the nearest directory holding go.mod or .git.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(start)
	for dir := start; ; {
		for _, marker := range []string{"go.mod", ".git"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// consoleStyles tints the prefix and error fields of console output.
func consoleStyles() *charmLog.Styles {
	styles := charmLog.DefaultStyles()
	styles.Prefix = lipglossv1.NewStyle().Bold(true).Foreground(lipglossv1.Color("62"))
	styles.Keys["err"] = lipglossv1.NewStyle().Foreground(lipglossv1.Color("204"))
	styles.Values["err"] = lipglossv1.NewStyle().Bold(true)
	return styles
}
