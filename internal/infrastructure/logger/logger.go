package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ModeAppend    = "append"
	ModeOverwrite = "overwrite"
)

// Options mirrors the app.log_* settings.
type Options struct {
	Level string
	File  string
	Mode  string

	// A zero MaxSizeMB keeps File as one plain file; anything larger hands
	// it to lumberjack, which rotates at that size.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Logger struct {
	*zap.SugaredLogger
	file io.Closer
}

// New builds a console logger, teed into a JSON file when opts.File is set.
func New(opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		level,
	)

	if opts.File == "" {
		return build(console, nil), nil
	}

	sink, err := openSink(opts)
	if err != nil {
		return nil, err
	}

	file := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileEncoderConfig()),
		zapcore.AddSync(sink),
		level,
	)

	return build(zapcore.NewTee(console, file), sink), nil
}

func build(core zapcore.Core, sink io.WriteCloser) *Logger {
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	l := &Logger{SugaredLogger: zapLogger.Sugar()}
	if sink != nil {
		l.file = sink
	}
	return l
}

// openSink honours log_mode for both the plain and the rotating file.
func openSink(opts Options) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if opts.MaxSizeMB <= 0 {
		flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
		if opts.Mode == ModeOverwrite {
			flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		}
		f, err := os.OpenFile(opts.File, flags, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, nil
	}

	if opts.Mode == ModeOverwrite {
		if err := os.Truncate(opts.File, 0); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to truncate log file: %w", err)
		}
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}, nil
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}

func (l *Logger) Close() {
	_ = l.Sync()
	if l.file != nil {
		_ = l.file.Close()
	}
}
