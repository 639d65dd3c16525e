package queue

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
)

// slogLogger adapts slog to the asynq.Logger interface so the worker's
// internal logging matches the rest of the process.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger returns an asynq.Logger backed by l.
func NewSlogLogger(l *slog.Logger) asynq.Logger {
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(args ...interface{}) { s.l.Debug(fmt.Sprint(args...)) }
func (s *slogLogger) Info(args ...interface{})  { s.l.Info(fmt.Sprint(args...)) }
func (s *slogLogger) Warn(args ...interface{})  { s.l.Warn(fmt.Sprint(args...)) }
func (s *slogLogger) Error(args ...interface{}) { s.l.Error(fmt.Sprint(args...)) }

func (s *slogLogger) Fatal(args ...interface{}) {
	s.l.Error(fmt.Sprint(args...))
	os.Exit(1)
}
