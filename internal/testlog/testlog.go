/*
NAME
  testlog.go

DESCRIPTION
  testlog.go adapts a *testing.T into a logging.Logger, so package tests
  can hand a real logger to a Server or Session and have its output
  captured by go test -v instead of discarded or sent to a file.

LICENSE
  MIT
*/

package testlog

import (
	"testing"

	"github.com/ausocean/utils/logging"
)

// T wraps a *testing.T to satisfy logging.Logger.
type T testing.T

func (t *T) Debug(msg string, args ...interface{})   { t.log(logging.Debug, msg, args...) }
func (t *T) Info(msg string, args ...interface{})    { t.log(logging.Info, msg, args...) }
func (t *T) Warning(msg string, args ...interface{}) { t.log(logging.Warning, msg, args...) }
func (t *T) Error(msg string, args ...interface{})   { t.log(logging.Error, msg, args...) }
func (t *T) Fatal(msg string, args ...interface{})   { t.log(logging.Fatal, msg, args...) }
func (t *T) SetLevel(lvl int8)                       {}

func (t *T) log(lvl int8, msg string, args ...interface{}) {
	tt := (*testing.T)(t)
	var level string
	switch lvl {
	case logging.Debug:
		level = "debug"
	case logging.Info:
		level = "info"
	case logging.Warning:
		level = "warning"
	case logging.Error:
		level = "error"
	case logging.Fatal:
		level = "fatal"
	}
	if len(args) == 0 {
		tt.Log(level + ": " + msg)
		return
	}
	tt.Log(level+": "+msg, args)
}

// New returns a logging.Logger backed by t.
func New(t *testing.T) *T { return (*T)(t) }
