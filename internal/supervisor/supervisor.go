// Package supervisor implements the outer retry loop: open → handshake
// → pump → teardown → sleep → repeat, forever, for every error except
// the startup validations that already failed before the loop ever
// starts.
package supervisor

import (
	"context"
	"net"
	"time"

	"insert/internal/apperr"
	"insert/internal/applog"
	"insert/internal/config"
	"insert/internal/errsink"
	"insert/internal/handshake"
	"insert/internal/noncesource"
	"insert/internal/peersocket"
	"insert/internal/pump"
)

// CaptureOpener builds the CaptureSource for one Session from the
// Config, and is how the Supervisor stays decoupled from any one
// concrete CaptureSource implementation (internal/capture's gopacket
// adapter, or a fake in tests).
type CaptureOpener func(cfg *config.Config) (pump.CaptureSource, error)

// Supervisor owns the process-wide NonceSource and drives the infinite
// retry loop. It is built once at process start from a validated
// Config.
type Supervisor struct {
	cfg     *config.Config
	nonces  *noncesource.Source
	sink    *errsink.Sink
	capture CaptureOpener
	logger  applog.Logger
}

// New builds a Supervisor. cfg must already be validated (e.g. via
// config.Load). opener supplies the CaptureSource for each Session.
func New(cfg *config.Config, opener CaptureOpener, logger applog.Logger) (*Supervisor, error) {
	nonces, err := noncesource.New(cfg.Key[:])
	if err != nil {
		return nil, err
	}
	return &Supervisor{
		cfg:     cfg,
		nonces:  nonces,
		sink:    errsink.New(cfg.ErrorVarName, cfg.ErrorCodeWidth),
		capture: opener,
		logger:  logger,
	}, nil
}

// Run executes the retry loop until ctx is cancelled. Every iteration
// is a fully scoped acquire/release: whatever fails, the socket and
// capture handle from that iteration are always released before
// sleeping and trying again.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.runOnce(ctx); err != nil {
			if appErr, ok := err.(*apperr.Err); ok {
				s.sink.Record(appErr.Code.Abs())
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(s.cfg.SleepSeconds) * time.Second):
		}
	}
}

// runOnce performs exactly one open→handshake→pump→teardown cycle and
// returns the error (if any) to surface through the ErrorSink. Every
// exit path releases the socket and capture handle via defer,
// replacing the original's goto-based cleanup.
func (s *Supervisor) runOnce(ctx context.Context) (retErr error) {
	conn, err := s.openSocket(ctx)
	if err != nil {
		s.logger.Printf("peer setup failed: %v", err)
		return wrapNonFatal(err)
	}
	conn = peersocket.WithTimeouts(conn, s.cfg.IOTimeout)
	defer conn.Close()

	sess, err := handshake.Perform(conn, s.cfg, s.nonces)
	if err != nil {
		s.logger.Printf("handshake failed: %v", err)
		return wrapNonFatal(err)
	}
	defer sess.Close()

	captureSource, err := s.capture(s.cfg)
	if err != nil {
		s.logger.Printf("capture open failed: %v", err)
		return wrapNonFatal(err)
	}
	defer closeCapture(captureSource)

	if err := pump.Run(ctx, sess, captureSource, s.logger); err != nil {
		s.logger.Printf("session terminated: %v", err)
		return wrapNonFatal(err)
	}
	return nil
}

func (s *Supervisor) openSocket(ctx context.Context) (conn net.Conn, err error) {
	switch s.cfg.PeerMode {
	case peersocket.ModeListen:
		return peersocket.Listen(ctx, s.cfg.PeerHost, s.cfg.PeerPort)
	default:
		return peersocket.Connect(ctx, s.cfg.PeerHost, s.cfg.PeerPort)
	}
}

// closeCapture closes a CaptureSource if it also implements io.Closer;
// not every fake used in tests needs to.
func closeCapture(c pump.CaptureSource) {
	if closer, ok := c.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

func wrapNonFatal(err error) error {
	var appErr *apperr.Err
	if e, ok := err.(*apperr.Err); ok {
		appErr = e
	} else if code, ok := err.(apperr.Code); ok {
		appErr = apperr.New(code, "")
	} else {
		appErr = apperr.New(apperr.RecvError, err.Error())
	}
	return appErr
}
