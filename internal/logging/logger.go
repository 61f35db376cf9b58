// Package logging provides categorized file-based debug logging for
// pageguard. Logs are written to .pageguard/logs/ with one file per category
// per day. Logging is controlled by debug_mode in .pageguard/config.json;
// when false, every call is a silent no-op.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category.
type Category string

const (
	CategoryBoot     Category = "boot"     // startup, config loading
	CategoryResolver Category = "resolver" // content resolution, scraping
	CategoryLLM      Category = "llm"      // provider adapter calls
	CategoryAnalysis Category = "analysis" // orchestration pipeline
	CategoryStore    Category = "store"    // persistence facade
)

// loggingConfig mirrors the logging section of .pageguard/config.json,
// duplicated here to avoid an import cycle with internal/config.
type loggingConfig struct {
	DebugMode bool   `json:"debug_mode"`
	Level     string `json:"level"`
}

type configFile struct {
	Logging loggingConfig `json:"logging"`
}

// Logger writes to a single category's file.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	cfg       loggingConfig
	cfgMu     sync.RWMutex
	logLevel  int
)

const (
	levelDebug = 0
	levelInfo  = 1
	levelWarn  = 2
	levelError = 3
)

// Initialize sets up the logging directory from the workspace path. Safe to
// skip entirely; every logging call degrades to a no-op without it.
func Initialize(workspace string) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}
	logsDir = filepath.Join(workspace, ".pageguard", "logs")

	if err := loadConfig(filepath.Join(workspace, ".pageguard", "config.json")); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not load config: %v\n", err)
		cfg.DebugMode = false
	}
	if !cfg.DebugMode {
		return nil
	}

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	Boot("=== pageguard logging initialized (level=%s) ===", cfg.Level)
	return nil
}

func loadConfig(path string) error {
	cfgMu.Lock()
	defer cfgMu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.DebugMode = false
			return nil
		}
		return err
	}
	var cf configFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	cfg = cf.Logging

	switch cfg.Level {
	case "debug":
		logLevel = levelDebug
	case "warn", "warning":
		logLevel = levelWarn
	case "error":
		logLevel = levelError
	default:
		logLevel = levelInfo
	}
	return nil
}

// Get returns (or creates) the logger for a category. Returns a no-op logger
// when debug mode is off or the file cannot be opened.
func Get(category Category) *Logger {
	cfgMu.RLock()
	enabled := cfg.DebugMode
	cfgMu.RUnlock()
	if !enabled || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02"), category)
	file, err := os.OpenFile(filepath.Join(logsDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open log file: %v\n", err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	if l.logger == nil || logLevel > levelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	if l.logger == nil || logLevel > levelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	if l.logger == nil || logLevel > levelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Convenience functions; no-ops when the category is disabled.

func Boot(format string, args ...any)          { Get(CategoryBoot).Info(format, args...) }
func Resolver(format string, args ...any)      { Get(CategoryResolver).Info(format, args...) }
func ResolverDebug(format string, args ...any) { Get(CategoryResolver).Debug(format, args...) }
func ResolverError(format string, args ...any) { Get(CategoryResolver).Error(format, args...) }
func LLM(format string, args ...any)           { Get(CategoryLLM).Info(format, args...) }
func LLMDebug(format string, args ...any)      { Get(CategoryLLM).Debug(format, args...) }
func LLMError(format string, args ...any)      { Get(CategoryLLM).Error(format, args...) }
func Analysis(format string, args ...any)      { Get(CategoryAnalysis).Info(format, args...) }
func AnalysisDebug(format string, args ...any) { Get(CategoryAnalysis).Debug(format, args...) }
func AnalysisWarn(format string, args ...any)  { Get(CategoryAnalysis).Warn(format, args...) }
func Store(format string, args ...any)         { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...any)    { Get(CategoryStore).Debug(format, args...) }
func StoreWarn(format string, args ...any)     { Get(CategoryStore).Warn(format, args...) }
func StoreError(format string, args ...any)    { Get(CategoryStore).Error(format, args...) }
