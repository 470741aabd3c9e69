// Command insert loads the compiled-in Config, wires a pcap-backed
// CaptureSource, and hands both to a Supervisor that runs until the
// process is signalled to stop.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"insert/internal/apperr"
	"insert/internal/applog"
	"insert/internal/capture"
	"insert/internal/config"
	"insert/internal/pump"
	"insert/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(exitCode(err))
	}

	logger := applog.StdLogger{}

	opener := func(cfg *config.Config) (pump.CaptureSource, error) {
		return capture.Open(cfg.CaptureIface, cfg.CaptureSnaplen, cfg.CaptureFilter)
	}

	sup, err := supervisor.New(cfg, opener, logger)
	if err != nil {
		os.Exit(exitCode(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	sup.Run(ctx)
}

// exitCode maps a startup validation failure to a process exit code:
// the absolute value of the apperr.Code, falling back to a generic 1
// for anything unrecognized (which should not happen, since only
// Fatal codes reach here — config.New and supervisor.New never return
// anything else).
func exitCode(err error) int {
	var appErr *apperr.Err
	if e, ok := err.(*apperr.Err); ok {
		appErr = e
	}
	if appErr == nil {
		log.Printf("startup failed: %v", err)
		return 1
	}
	log.Printf("startup failed: %v", appErr)
	return appErr.Code.Abs()
}
