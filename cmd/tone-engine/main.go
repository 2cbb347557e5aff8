/*
NAME
  tone-engine

DESCRIPTION
  tone-engine is a speechswitch engine stub: it speaks over stdin/stdout
  using the tone backend, so it can be invoked directly for manual
  protocol testing or discovered and spawned by a host daemon. It never
  reads or writes a terminal directly -- the protocol is designed to run
  as a subprocess with its stdio piped.

LICENSE
  MIT
*/

package main

import (
	"flag"
	"os"

	"github.com/ausocean/utils/logging"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/speechswitch/backend/tone"
	"github.com/ausocean/speechswitch/enginesrv"
)

const (
	logPath      = "/var/log/speechswitch/tone-engine.log"
	logMaxSize   = 10 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

func main() {
	verbosity := flag.Int("verbosity", int(logging.Info), "log verbosity (0=debug .. 3=fatal)")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(int8(*verbosity), fileLog, false)

	srv := enginesrv.New(tone.New(), os.Stdin, os.Stdout, log)
	if err := srv.Run(); err != nil {
		log.Error("engine session ended with error", "error", err.Error())
		os.Exit(1)
	}
}
