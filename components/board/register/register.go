// Package register registers every device driver as a board extension.
package register

import (
	// for extensions.
	_ "go.viam.com/wiring/components/board/devices/ads1115"
	_ "go.viam.com/wiring/components/board/devices/max31855"
	_ "go.viam.com/wiring/components/board/devices/max5322"
	_ "go.viam.com/wiring/components/board/devices/mcp23008"
	_ "go.viam.com/wiring/components/board/devices/mcp23017"
	_ "go.viam.com/wiring/components/board/devices/mcp23s08"
	_ "go.viam.com/wiring/components/board/devices/mcp23s17"
	_ "go.viam.com/wiring/components/board/devices/mcp3002"
	_ "go.viam.com/wiring/components/board/devices/mcp3004"
	_ "go.viam.com/wiring/components/board/devices/mcp3422"
	_ "go.viam.com/wiring/components/board/devices/mcp4802"
	_ "go.viam.com/wiring/components/board/devices/pcf8574"
	_ "go.viam.com/wiring/components/board/devices/pcf8591"
	_ "go.viam.com/wiring/components/board/devices/sn3218"
	_ "go.viam.com/wiring/components/board/devices/sr595"
)
