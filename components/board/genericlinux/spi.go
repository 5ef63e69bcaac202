package genericlinux

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"go.viam.com/wiring/components/board/genericlinux/buses"
)

// NewSPIBus returns the periph SPI bus with the given number. Chip selects name the port on
// that bus, so bus "0" with chip select "1" is SPI0.1.
func NewSPIBus(bus string) buses.SPI {
	return &spiBus{bus: bus, open: spireg.Open}
}

type spiBus struct {
	mu         sync.Mutex
	openHandle *spiHandle
	bus        string

	open func(name string) (spi.PortCloser, error)
}

type spiHandle struct {
	bus      *spiBus
	isClosed bool
}

func (sb *spiBus) OpenHandle() (buses.SPIHandle, error) {
	sb.mu.Lock()
	sb.openHandle = &spiHandle{bus: sb, isClosed: false}
	return sb.openHandle, nil
}

func (sb *spiBus) Close(ctx context.Context) error {
	return nil
}

func (sh *spiHandle) Xfer(ctx context.Context, baud uint, chipSelect string, mode uint, tx []byte) (rx []byte, err error) {
	if sh.isClosed {
		return nil, errors.New("can't use Xfer() on an already closed SPIHandle")
	}

	port, err := sh.bus.open(fmt.Sprintf("SPI%s.%s", sh.bus.bus, chipSelect))
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, port.Close())
	}()
	conn, err := port.Connect(physic.Hertz*physic.Frequency(baud), spi.Mode(mode), 8)
	if err != nil {
		return nil, err
	}
	rx = make([]byte, len(tx))
	return rx, conn.Tx(tx, rx)
}

func (sh *spiHandle) Connect(ctx context.Context, baud uint, chipSelect string, mode uint) (err error) {
	if sh.isClosed {
		return errors.New("can't use Connect() on an already closed SPIHandle")
	}

	port, err := sh.bus.open(fmt.Sprintf("SPI%s.%s", sh.bus.bus, chipSelect))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, port.Close())
	}()
	_, err = port.Connect(physic.Hertz*physic.Frequency(baud), spi.Mode(mode), 8)
	return err
}

func (sh *spiHandle) Close() error {
	if sh.isClosed {
		return errors.New("SPIHandle already closed")
	}
	sh.isClosed = true
	sh.bus.openHandle = nil
	sh.bus.mu.Unlock()
	return nil
}
