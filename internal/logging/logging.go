package logging

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level       string
	File        string
	Development bool
}

// Setup configures the global zerolog logger. Console output is used when
// stdout is a terminal or in development; JSON otherwise. A non-empty File
// adds a rotating JSON sink.
func Setup(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if opts.Development || isatty.IsTerminal(os.Stdout.Fd()) {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
	if opts.File != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

type userKey struct{}

// SetUserID records the authenticated user on the access log line of the
// current request. It is a no-op outside AccessLog.
func SetUserID(ctx context.Context, id string) {
	if p, ok := ctx.Value(userKey{}).(*string); ok {
		*p = id
	}
}

// AccessLog logs one line per request, raising the level with the status.
func AccessLog() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			var uid string
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), userKey{}, &uid)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := log.Info()
			if status >= 400 {
				event = log.Warn()
			}
			if status >= 500 {
				event = log.Error()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("ip", r.RemoteAddr).
				Str("user_id", uid).
				Int("bytes", ww.BytesWritten()).
				Msg("request")
		})
	}
}
