package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes structured entries to a log file and to stdout.
type Logger struct {
	z         *zap.Logger
	writeFile *os.File
	path      string
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "@time",
	LevelKey:       "@level",
	NameKey:        "@scope",
	CallerKey:      "@caller",
	MessageKey:     "@msg",
	StacktraceKey:  "@stack",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.LowercaseLevelEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
}

// LoggerOptions tunes NewLoggerWithOptions.
type LoggerOptions struct {
	Level  string
	Format string // "json" or "console"
	// Stdout mirrors entries to the process stdout when set.
	Stdout bool
}

// NewLogger opens logFile for appending at info level. An empty path logs
// to stdout only.
func NewLogger(logFile string) *Logger {
	return NewLoggerWithOptions(logFile, LoggerOptions{Level: "info", Format: "json"})
}

// NewLoggerWithOptions builds the zap cores for the file and optional stdout sinks.
func NewLoggerWithOptions(logFile string, opts LoggerOptions) *Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			level.SetLevel(zapcore.InfoLevel)
		}
	}
	newEncoder := func() zapcore.Encoder {
		if strings.EqualFold(opts.Format, "console") {
			return zapcore.NewConsoleEncoder(encoderConfig)
		}
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	logger := &Logger{}
	var cores []zapcore.Core
	if logFile != "" {
		_ = os.MkdirAll(filepath.Dir(logFile), 0o755)
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening log file (%s): %v\n", logFile, err)
		} else {
			logger.writeFile = f
			logger.path = logFile
			cores = append(cores, zapcore.NewCore(newEncoder(), zapcore.AddSync(f), level))
		}
	}
	if opts.Stdout || logger.writeFile == nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stdout), level))
	}
	logger.z = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return logger
}

// NewNopLogger discards everything; used by tests.
func NewNopLogger() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Write records an info entry.
func (l *Logger) Write(message string) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Info(message)
}

func (l *Logger) Writef(format string, args ...any) {
	l.Write(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Error(fmt.Sprintf(format, args...))
}

// Zap exposes the structured logger for callers that attach fields.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.z == nil {
		return zap.NewNop()
	}
	return l.z.WithOptions(zap.AddCallerSkip(-1))
}

// Tail returns at most maxBytes from the end of the log file, starting at
// a line boundary.
func (l *Logger) Tail(maxBytes int64) (string, error) {
	if l == nil || l.path == "" {
		return "", nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	offset := int64(0)
	if maxBytes > 0 && info.Size() > maxBytes {
		offset = info.Size() - maxBytes
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	out := string(data)
	if offset > 0 {
		if i := strings.IndexByte(out, '\n'); i >= 0 {
			out = out[i+1:]
		}
	}
	return out, nil
}

// Close flushes and closes underlying file handles.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	if l.z != nil {
		_ = l.z.Sync()
	}
	if l.writeFile != nil {
		l.writeFile.Close()
	}
}
