// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package log is a trimmed stand-in for erigon-lib's own log/v3: the same
// package-level Root()/New() loggers and Info/Warn/Error/Debug/Trace call
// sites (`log.Info("msg", "k", v)`), rebuilt directly on zap rather than on
// the upstream package's own log15-derived core, since that core didn't
// come down with this repo's copy of erigon-lib. Call sites elsewhere in
// this module are written exactly as they would be against the real
// package, so swapping this file for the genuine one is a drop-in change.
package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the handle every call site logs through, matching the
// upstream package's Logger interface shape closely enough for this
// repo's needs (Info/Warn/Error/Debug/Trace, each taking a message and
// an even-length list of key/value pairs).
type Logger struct {
	z *zap.SugaredLogger
}

var root = New()

// Root returns the process-wide default logger.
func Root() *Logger { return root }

// New builds a fresh logger writing structured JSON to stderr at Info
// level, matching the level the teacher's CLI commands default to absent
// an explicit --verbosity flag.
func New() *Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "t"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Config above is static and always valid; surviving this branch
		// would mean zap itself is broken, not something a caller can act
		// on, so fall back to a logger that at least doesn't nil-panic.
		z = zap.NewNop()
	}
	return &Logger{z: z.Sugar()}
}

func (l *Logger) with(ctx []any) *zap.SugaredLogger {
	if l == nil || l.z == nil {
		return zap.NewNop().Sugar()
	}
	if len(ctx) == 0 {
		return l.z
	}
	return l.z.With(ctx...)
}

func (l *Logger) Trace(msg string, ctx ...any) { l.with(ctx).Debug(msg) }
func (l *Logger) Debug(msg string, ctx ...any) { l.with(ctx).Debug(msg) }
func (l *Logger) Info(msg string, ctx ...any)  { l.with(ctx).Info(msg) }
func (l *Logger) Warn(msg string, ctx ...any)  { l.with(ctx).Warn(msg) }
func (l *Logger) Error(msg string, ctx ...any) { l.with(ctx).Error(msg) }

func (l *Logger) Crit(msg string, ctx ...any) {
	l.with(ctx).Error(msg)
	os.Exit(1)
}

// package-level convenience wrappers over Root(), the call style the
// teacher's own sites use (`log.Info(...)` rather than
// `log.Root().Info(...)`).

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }

// Fmt is a small helper for call sites that still want to build a
// prefixed message string the way `fmt.Sprintf("[%s] ...", logPrefix)`
// does in the teacher's own logging call sites.
func Fmt(format string, args ...any) string { return fmt.Sprintf(format, args...) }
