package fake

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/wiring/components/board/genericlinux/buses"
)

// A Transfer records one SPI transfer.
type Transfer struct {
	Baud       uint
	ChipSelect string
	Mode       uint
	Tx         []byte
	Rx         []byte
}

// SPI is an in-memory SPI bus. Responses come from Responder; every transfer is logged.
type SPI struct {
	// Responder, if set, computes the bytes clocked in for tx. Short or nil responses are padded
	// with zeros to len(tx).
	Responder func(chipSelect string, tx []byte) []byte
	// OpenErr, if set, is returned by OpenHandle.
	OpenErr error
	// XferErr, if set, is returned by every transfer.
	XferErr error
	// PortErr, if set, is returned by every Connect.
	PortErr error

	busLock   sync.Mutex
	mu        sync.Mutex
	transfers []Transfer
	closed    bool
}

// NewSPI returns a bus that responds to every transfer with zeros.
func NewSPI() *SPI {
	return &SPI{}
}

// OpenHandle locks the bus and returns a handle that releases it on Close.
func (s *SPI) OpenHandle() (buses.SPIHandle, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	s.busLock.Lock()
	return &spiHandle{bus: s}, nil
}

// Close marks the bus closed.
func (s *SPI) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SPI) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Transfers returns every transfer made so far.
func (s *SPI) Transfers() []Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transfer(nil), s.transfers...)
}

// Reset forgets all recorded transfers.
func (s *SPI) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = nil
}

type spiHandle struct {
	bus    *SPI
	closed bool
}

func (h *spiHandle) Xfer(ctx context.Context, baud uint, chipSelect string, mode uint, tx []byte) ([]byte, error) {
	if h.closed {
		return nil, errors.New("spi handle already closed")
	}
	if h.bus.XferErr != nil {
		return nil, h.bus.XferErr
	}
	rx := make([]byte, len(tx))
	if h.bus.Responder != nil {
		copy(rx, h.bus.Responder(chipSelect, tx))
	}
	h.bus.mu.Lock()
	h.bus.transfers = append(h.bus.transfers, Transfer{
		Baud:       baud,
		ChipSelect: chipSelect,
		Mode:       mode,
		Tx:         append([]byte(nil), tx...),
		Rx:         append([]byte(nil), rx...),
	})
	h.bus.mu.Unlock()
	return rx, nil
}

func (h *spiHandle) Connect(ctx context.Context, baud uint, chipSelect string, mode uint) error {
	if h.closed {
		return errors.New("spi handle already closed")
	}
	return h.bus.PortErr
}

func (h *spiHandle) Close() error {
	if h.closed {
		return errors.New("spi handle already closed")
	}
	h.closed = true
	h.bus.busLock.Unlock()
	return nil
}
