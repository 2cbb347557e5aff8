/*
NAME
  speechswitchd

DESCRIPTION
  speechswitchd is the host engine daemon: it discovers engine stubs in
  one or more configured directories, starts a Session against the
  engine named by -engine, and watches those directories, logging when
  their contents change (the engine list itself is read once at
  startup and not refreshed). When run under systemd it reports
  readiness and, if a watchdog interval is configured, pings it
  periodically -- the same pattern the capture pipeline uses for
  service supervision, applied here to a speech engine host instead of
  a video pipeline.

LICENSE
  MIT
*/

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/coreos/go-systemd/daemon"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/speechswitch/discovery"
	"github.com/ausocean/speechswitch/host"
	"github.com/ausocean/speechswitch/protocol"
)

const (
	logPath      = "/var/log/speechswitch/speechswitchd.log"
	logMaxSize   = 10 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

func main() {
	dirsFlag := flag.String("dirs", "/usr/libexec/speechswitch", "comma-separated list of engine directories to search")
	engineName := flag.String("engine", "", "name of the engine to start (from -dirs); if empty, lists discovered engines and exits")
	verbosity := flag.Int("verbosity", int(logging.Info), "log verbosity (0=debug .. 3=fatal)")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(int8(*verbosity), fileLog, false)

	dirs := strings.Split(*dirsFlag, ",")
	engines, err := discovery.ListEngines(dirs)
	if err != nil {
		log.Fatal("could not list engine directories", "error", err.Error())
	}

	if *engineName == "" {
		for _, e := range engines {
			fmt.Println(e.Name, e.Path)
		}
		return
	}

	var path string
	for _, e := range engines {
		if e.Name == *engineName {
			path = e.Path
		}
	}
	if path == "" {
		log.Fatal("engine not found", "name", *engineName)
	}

	sess := host.NewSession(path, log)
	if err := sess.Start(); err != nil {
		log.Fatal("could not start engine", "error", err.Error())
	}
	defer sess.Stop()

	if v, err := sess.GetVersion(); err != nil {
		log.Warning("could not query engine protocol version", "error", err.Error())
	} else if v != protocol.Version {
		log.Error("engine protocol version mismatch", "engine", v, "host", protocol.Version)
	}

	watcher, err := discovery.NewWatcher(dirs)
	if err != nil {
		log.Warning("engine directory watch disabled", "error", err.Error())
	} else {
		defer watcher.Close()
		stop := make(chan struct{})
		defer close(stop)
		go watcher.Watch(stop, func() {
			log.Debug("engine directory changed")
		})
	}

	notifySystemd(log, sess)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
}

// notifySystemd reports readiness to systemd and, if a watchdog interval
// is configured, starts a goroutine that pings it at half that interval
// for as long as the session stays running.
func notifySystemd(log logging.Logger, sess *host.Session) {
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug("systemd notify unavailable", "error", err.Error())
	} else if ok {
		log.Debug("systemd ready notification sent")
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for range ticker.C {
			if !sess.IsRunning() {
				return
			}
			daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}()
}
