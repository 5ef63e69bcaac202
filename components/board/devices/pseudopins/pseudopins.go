//go:build unix

// Package pseudopins exposes 64 integer slots in a shared memory file as analog pins. Any
// process that maps the same file sees the same values, which lets unrelated programs pass
// numbers to each other through ordinary pin reads and writes.
//
// Access is unsynchronized. Concurrent writers to the same slot race and the last write wins;
// a reader may observe a torn value.
package pseudopins

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the pseudo pins register under.
const ExtensionName = "pseudoPins"

const (
	// DefaultDir is where the shared file is created.
	DefaultDir = "/dev/shm"
	// SharedName is the name of the shared file.
	SharedName = "wiringPiPseudoPins"

	pinCount = 64
	slotSize = 4
	size     = pinCount * slotSize
)

func init() {
	board.RegisterExtension(ExtensionName, board.ExtensionRegistration{
		Constructor: func(
			ctx context.Context,
			deps board.ExtensionDependencies,
			pinBase int,
			attributes map[string]interface{},
		) (*board.Node, error) {
			if err := board.DecodeAttributes(attributes, &struct{}{}); err != nil {
				return nil, err
			}
			return Setup(ctx, deps.Registry, pinBase, DefaultDir, deps.Logger)
		},
	})
}

// Setup maps SharedName in dir, creating it if needed, and registers its slots at pinBase.
func Setup(ctx context.Context, registry *board.Registry, pinBase int, dir string, logger logging.Logger) (*board.Node, error) {
	path := filepath.Join(dir, SharedName)
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o666)
	if err != nil {
		return nil, errors.Wrapf(err, "opening shared memory %q", path)
	}
	if err := unix.Ftruncate(fd, size); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "resizing shared memory %q", path), unix.Close(fd))
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "mapping shared memory %q", path), unix.Close(fd))
	}

	slots := &sharedSlots{fd: fd, mem: mem}
	node, err := registry.AddNode(pinBase, pinCount, slots)
	if err != nil {
		return nil, multierr.Combine(err, slots.Close())
	}
	logger.Debugw("pseudo pins mapped", "pin_base", pinBase, "path", path)
	return node, nil
}

var errClosed = errors.New("pseudo pins are closed")

// sharedSlots guards only the lifetime of the mapping; slot values are never locked.
type sharedSlots struct {
	mu  sync.RWMutex
	fd  int
	mem []byte
}

func (s *sharedSlots) AnalogRead(ctx context.Context, pin int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mem == nil {
		return 0, errClosed
	}
	return int(int32(binary.NativeEndian.Uint32(s.mem[pin*slotSize:]))), nil
}

func (s *sharedSlots) AnalogWrite(ctx context.Context, pin, value int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mem == nil {
		return errClosed
	}
	binary.NativeEndian.PutUint32(s.mem[pin*slotSize:], uint32(int32(value)))
	return nil
}

// Close unmaps the slots. Later reads and writes fail with an error.
func (s *sharedSlots) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem == nil {
		return nil
	}
	err := multierr.Combine(unix.Munmap(s.mem), unix.Close(s.fd))
	s.mem = nil
	return err
}
