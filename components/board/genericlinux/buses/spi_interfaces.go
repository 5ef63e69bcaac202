package buses

import (
	"context"

	"go.uber.org/multierr"
)

// SPI represents a shareable SPI bus on a generic Linux board.
type SPI interface {
	// OpenHandle locks the shared bus and returns a handle interface that MUST be closed when done.
	OpenHandle() (SPIHandle, error)
	Close(ctx context.Context) error
}

// SPIHandle is similar to an io handle. It MUST be closed to release the bus.
type SPIHandle interface {
	// Xfer performs a single SPI transfer, that is, the complete transaction from chipselect
	// enable to chipselect disable. SPI transfers are synchronous, number of bytes received will
	// be equal to the number of bytes sent. Write-only transfers can usually just discard the
	// returned bytes. Read-only transfers usually transmit a request/address and continue with
	// some number of null bytes to equal the expected size of the returning data.
	Xfer(
		ctx context.Context,
		baud uint,
		chipSelect string,
		mode uint,
		tx []byte,
	) ([]byte, error)

	// Connect opens and configures the port behind chipSelect without transferring anything,
	// failing if the port does not exist.
	Connect(ctx context.Context, baud uint, chipSelect string, mode uint) error

	// Close closes the handle and releases the lock on the bus.
	Close() error
}

// Xfer opens a handle on bus, performs one transfer and releases the bus again.
func Xfer(ctx context.Context, bus SPI, baud uint, chipSelect string, mode uint, tx []byte) (rx []byte, err error) {
	handle, err := bus.OpenHandle()
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, handle.Close())
	}()
	return handle.Xfer(ctx, baud, chipSelect, mode, tx)
}
