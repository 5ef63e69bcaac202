//go:build unix

package register

import (
	// shared memory is only mapped on unix.
	_ "go.viam.com/wiring/components/board/devices/pseudopins"
)
