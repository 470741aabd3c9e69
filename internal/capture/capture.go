// Package capture is the one concrete CaptureSource this module ships,
// built on gopacket/pcap.
package capture

import (
	"context"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"insert/internal/apperr"
)

// Source opens a live interface with a compiled BPF filter and
// delivers/injects raw link-layer frames through it, mirroring
// original_source/insert/cap.c's pcap_open_live/pcap_compile/
// pcap_setfilter sequence.
type Source struct {
	handle *pcap.Handle
}

// Open starts packet capture on iface with the given snapshot length
// and BPF filter expression. The filter is compiled and installed
// before Open returns, so no packet is ever delivered unfiltered.
func Open(iface string, snaplen int32, filter string) (*Source, error) {
	// Promiscuous mode off: a covert capture tool should not change
	// what the interface actually receives, and promiscuous mode is
	// externally observable.
	handle, err := pcap.OpenLive(iface, snaplen, false, pcap.BlockForever)
	if err != nil {
		return nil, apperr.Wrap(apperr.CaptureError, err)
	}
	if filter != "" {
		if err := handle.SetBPFFilter(filter); err != nil {
			handle.Close()
			return nil, apperr.Wrap(apperr.CaptureError, err)
		}
	}
	return &Source{handle: handle}, nil
}

// Loop delivers captured frames to deliver until ctx is cancelled, the
// handle is closed (via BreakLoop), or deliver returns an error.
// deliver receives (capturedLen, totalLen, bytes): with libpcap, the
// two lengths can differ when a snaplen shorter than the frame
// truncates it.
func (s *Source) Loop(ctx context.Context, deliver func(capturedLen, totalLen int, payload []byte) error) error {
	packetSource := gopacket.NewPacketSource(s.handle, s.handle.LinkType())
	packets := packetSource.Packets()
	for {
		select {
		case <-ctx.Done():
			return nil
		case pkt, ok := <-packets:
			if !ok {
				return nil
			}
			if pkt == nil {
				continue
			}
			md := pkt.Metadata()
			data := pkt.Data()
			if err := deliver(md.CaptureLength, md.Length, data); err != nil {
				return err
			}
		}
	}
}

// Inject writes a raw frame back onto the interface.
func (s *Source) Inject(payload []byte) error {
	if err := s.handle.WritePacketData(payload); err != nil {
		return apperr.Wrap(apperr.CaptureError, err)
	}
	return nil
}

// BreakLoop unblocks an in-progress Loop call. gopacket's packet
// channel closes once the underlying handle is closed, which is how
// Close() below also doubles as BreakLoop's mechanism — so a Close
// that races a BreakLoop call is harmless.
func (s *Source) BreakLoop() {
	s.handle.Close()
}

// Close releases the pcap handle. Safe to call after BreakLoop has
// already closed it.
func (s *Source) Close() error {
	s.handle.Close()
	return nil
}
