// Package logger sets up the global zerolog logger: console, rotating files,
// DataDog shipping and a prometheus hook counting log statements per level.
package logger

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// dataDog is the active DataDog writer, if enabled.
var dataDog *DataDogWriter //nolint:gochecknoglobals

// LevelWriter routes log lines to one writer per level group:
// trace, debug and info, warn, error and above.
type LevelWriter struct {
	io.Writer
	ErrorWriter io.Writer
	InfoWriter  io.Writer
	TraceWriter io.Writer
	WarnWriter  io.Writer
}

// WriteLevel implements zerolog.LevelWriter.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	switch {
	case l == zerolog.Disabled:
		return 0, nil
	case l == zerolog.TraceLevel:
		return lw.TraceWriter.Write(p) //nolint:wrapcheck
	case l == zerolog.WarnLevel:
		return lw.WarnWriter.Write(p) //nolint:wrapcheck
	case l > zerolog.WarnLevel:
		return lw.ErrorWriter.Write(p) //nolint:wrapcheck
	default:
		return lw.InfoWriter.Write(p) //nolint:wrapcheck
	}
}

// Init replaces the global logger with one writing to the enabled outputs.
// Without any enabled output nothing is logged.
func Init(cfg Log) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("loglevel %s is not supported", cfg.LogLevel))
	}

	if cfg.ServiceName == "" {
		return ErrServiceNameIsEmpty
	}

	if cfg.AppName == "" {
		return ErrAppNameIsEmpty
	}

	var writers []io.Writer

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg))
	}

	if cfg.File.Enabled {
		if fw := newRollingInfoErrorFile(cfg); fw != nil {
			writers = append(writers, fw)
		}
	}

	if cfg.DataDog.Enabled {
		dd, errDD := NewDataDogWriter(cfg)
		if errDD != nil {
			return errDD
		}

		dataDog = dd
		writers = append(writers, dd)
	}

	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Hook(NewPrometheusHook(cfg.ServiceName)).
		With().Timestamp()

	if cfg.ReportCaller {
		ctx = ctx.Caller()

		// stack traces of pkg/errors only at trace level
		if level == zerolog.TraceLevel {
			zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
			ctx = ctx.Stack()
		}
	}

	log.Logger = ctx.Logger()

	return nil
}

// Close flushes writers that buffer log lines.
func Close() error {
	if dataDog == nil {
		return nil
	}

	return dataDog.Close()
}

// NewRotatingFile returns a size rotated log file dir/name. Sizes are in
// megabytes, ages in days.
func NewRotatingFile(dir, name string, maxSize, maxBackups, maxAge int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path.Join(dir, name),
		MaxSize:    maxSize,
		MaxAge:     maxAge,
		MaxBackups: maxBackups,
	}
}

// newRollingInfoErrorFile writes every level group to its own rotating file.
func newRollingInfoErrorFile(cfg Log) io.Writer {
	f := cfg.File

	if err := os.MkdirAll(f.Path, 0o750); err != nil { //nolint: mnd
		log.Error().Err(err).Str("path", f.Path).Msg("can't create log directory")

		return nil
	}

	return &LevelWriter{
		ErrorWriter: NewRotatingFile(f.Path, f.ErrorLog, f.ErrorMaxSize, f.ErrorMaxBackups, f.ErrorMaxAge),
		InfoWriter:  NewRotatingFile(f.Path, f.InfoLog, f.InfoMaxSize, f.InfoMaxBackups, f.InfoMaxAge),
		TraceWriter: NewRotatingFile(f.Path, f.TraceLog, f.TraceMaxSize, f.TraceMaxBackups, f.TraceMaxAge),
		WarnWriter:  NewRotatingFile(f.Path, f.WarnLog, f.WarnMaxSize, f.WarnMaxBackups, f.WarnMaxAge),
	}
}

// NewConsoleWriter writes info and below to stdout and the rest to stderr,
// as JSON or through a zerolog.ConsoleWriter.
func NewConsoleWriter(cfg Log) io.Writer {
	out := func(w io.Writer) io.Writer {
		if !cfg.Console.UseConsoleWriter {
			return w
		}

		return zerolog.ConsoleWriter{Out: w, TimeFormat: zerolog.TimeFieldFormat}
	}

	return &LevelWriter{
		ErrorWriter: out(os.Stderr),
		InfoWriter:  out(os.Stdout),
		TraceWriter: out(os.Stderr),
		WarnWriter:  out(os.Stderr),
	}
}
