// Package utils предоставляет логгер и graceful shutdown для утилит.
//
// Логгер пишет структурированные строки через zerolog в .log файл
// (по умолчанию zabbix-YYYY-MM-DD-HH-MM.log в текущей директории) или в stderr.
// stdout не используется никогда: MCP stdio транспорт занимает его целиком.
//
// Thread-safe через sync.Mutex.
package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logMutex sync.Mutex
	logger   = zerolog.Nop()
	logFile  *os.File
)

// LoggerOptions — параметры InitLogger.
type LoggerOptions struct {
	// FilePath — путь к лог-файлу. "-" означает stderr.
	FilePath string
	// Debug включает уровень DEBUG.
	Debug bool
	// Writer перекрывает FilePath (используется в тестах).
	Writer io.Writer
}

// InitLogger настраивает глобальный логгер.
//
// Повторный вызов закрывает предыдущий файл и открывает новый.
func InitLogger(opts LoggerOptions) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	closeLocked()

	var out io.Writer
	target := opts.FilePath

	switch {
	case opts.Writer != nil:
		out = opts.Writer
		target = "writer"
	case target == "-":
		out = os.Stderr
		target = "stderr"
	default:
		if target == "" {
			target = fmt.Sprintf("zabbix-%s.log", time.Now().Format("2006-01-02-15-04"))
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		out = f
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	logger.Info().Str("file", target).Msg("Logger initialized")

	return nil
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	write(zerolog.InfoLevel, msg, keyvals...)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	write(zerolog.ErrorLevel, msg, keyvals...)
}

// Debug - отладочное сообщение.
func Debug(msg string, keyvals ...any) {
	write(zerolog.DebugLevel, msg, keyvals...)
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	write(zerolog.WarnLevel, msg, keyvals...)
}

// write добавляет пары key=value как поля события.
// Непарный последний ключ отбрасывается.
func write(level zerolog.Level, msg string, keyvals ...any) {
	logMutex.Lock()
	defer logMutex.Unlock()

	ev := logger.WithLevel(level)
	if ev == nil {
		return
	}

	for i := 0; i+1 < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		switch v := keyvals[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}

	ev.Msg(msg)
}

// Close закрывает лог-файл и отключает логгер.
//
// Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()
	closeLocked()
}

func closeLocked() {
	logger = zerolog.Nop()
	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
		}
		logFile = nil
	}
}
