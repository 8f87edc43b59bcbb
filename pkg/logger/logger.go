package logger

/**
 * 使用log/slog库来记录结构化日志
 */
import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"selection_assistant/config"
)

var Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
var logFile *os.File

func Init(cfg config.LogConfig) error {
	level := slog.LevelError
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	}

	opts := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}

	var w io.Writer
	switch cfg.Output {
	case "stdout":
		w = os.Stdout
	case "stderr", "":
		w = os.Stderr
	default:
		var err error
		if _, err = os.Stat("logs"); os.IsNotExist(err) {
			if err = os.Mkdir("logs", os.ModePerm); err != nil {
				return fmt.Errorf("failed to mkdir logs: %w", err)
			}
		}
		logFile, err = os.OpenFile("logs/selection_assistant.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		w = logFile
	}

	Logger = slog.New(slog.NewJSONHandler(w, &opts))
	slog.SetDefault(Logger)
	return nil
}

func Close() {
	if logFile != nil {
		err := logFile.Close()
		if err != nil {
			Logger.Error("Error closing log file", "error", err.Error())
		}
		logFile = nil
	}
}
