// Package pump drives the two concurrent flows of one Session — the
// capture→peer flow and the peer→capture flow — under a single
// cancellation and write-once error policy.
package pump

import (
	"context"
	"sync"

	"insert/internal/applog"
	"insert/internal/frame"
	"insert/internal/session"
)

// CaptureSource is the external packet-capture collaborator: Loop
// blocks delivering captured frames to deliver until the context is
// cancelled or an error occurs; Inject writes one frame to the
// interface; BreakLoop unblocks an in-progress Loop call.
type CaptureSource interface {
	Loop(ctx context.Context, deliver func(capturedLen, totalLen int, payload []byte) error) error
	Inject(payload []byte) error
	BreakLoop()
}

// Run pumps sess until either flow terminates, cancels the other flow,
// joins both, and returns the Session's terminal error (nil if neither
// flow ever reported one).
func Run(ctx context.Context, sess *session.Session, capture CaptureSource, logger applog.Logger) error {
	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := captureToPeer(pumpCtx, sess, capture); err != nil {
			logger.Printf("capture->peer flow terminated: %v", err)
			sess.ReportError(err)
		}
		cancel()
	}()

	go func() {
		defer wg.Done()
		if err := peerToCapture(pumpCtx, sess, capture); err != nil {
			logger.Printf("peer->capture flow terminated: %v", err)
			sess.ReportError(err)
		}
		cancel()
	}()

	// Unblocks whichever flow is still running once the other one
	// (or the caller) cancels: BreakLoop wakes the capture callback,
	// closing the socket wakes the blocking frame read.
	go func() {
		<-pumpCtx.Done()
		capture.BreakLoop()
		_ = sess.Conn.Close()
	}()

	wg.Wait()
	return sess.Err()
}

func captureToPeer(ctx context.Context, sess *session.Session, capture CaptureSource) error {
	w := frame.NewWriter(sess.Conn, sess.Tx)
	return capture.Loop(ctx, func(capturedLen, totalLen int, payload []byte) error {
		return w.Send(capturedLen, totalLen, payload)
	})
}

func peerToCapture(ctx context.Context, sess *session.Session, capture CaptureSource) error {
	r := frame.NewReader(sess.Conn, sess.Rx)
	for {
		payload, err := r.Next()
		if err != nil {
			if ctx.Err() != nil {
				// The socket was closed to unblock us as part of
				// an orderly shutdown, not a protocol failure.
				return nil
			}
			return err
		}
		if err := capture.Inject(payload); err != nil {
			return err
		}
	}
}
