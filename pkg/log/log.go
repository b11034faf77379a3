// Package log provides per-package zerolog loggers with a single
// process-wide dev/prod mode switch: every package asks for its own named
// logger once at init time and writes through it for the life of the
// process.
package log

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.CallerSkipFrameCount = 3
}

// Out is the log output writer. Tests may redirect it.
var Out io.Writer = os.Stderr

// Mode selects "dev" (console-formatted) or "prod" (json) output.
var Mode = "dev"

var pkgs []string

// New returns a named logger for pkg, registering it so
// ListRegisteredPackages reports it. Call once per package at init time and
// hold onto the result.
func New(pkg string) *zerolog.Logger {
	pkgs = append(pkgs, pkg)
	return build(pkg)
}

// ListRegisteredPackages returns the names of every logger created with New.
func ListRegisteredPackages() []string {
	out := make([]string, len(pkgs))
	copy(out, pkgs)
	return out
}

func build(pkg string) *zerolog.Logger {
	zl := zerolog.New(Out).With().Str("pkg", pkg).Int("pid", os.Getpid()).Timestamp().Logger()
	if Mode == "" || Mode == "dev" {
		zl = zl.Output(zerolog.ConsoleWriter{Out: Out, TimeFormat: "15:04:05"})
	}
	return &zl
}

type ctxKey struct{}

// WithLogger returns a context carrying l, retrievable with FromContext.
func WithLogger(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger embedded in ctx, or a disabled logger if
// none was set (mirrors zerolog.Ctx's "never nil" contract).
func FromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok && l != nil {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}
