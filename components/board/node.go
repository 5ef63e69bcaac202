package board

import (
	"go.uber.org/atomic"
)

// A Node claims the contiguous pin range [Base, Base+Count) and routes operations on those pins
// to its Driver. The base and count never change after registration; the driver may be
// installed or replaced at any time and is inert until then.
type Node struct {
	base   int
	count  int
	driver atomic.Pointer[driverBox]
}

// driverBox lets a Driver, which is an interface, live behind an atomic pointer.
type driverBox struct {
	d Driver
}

func newNode(base, count int) *Node {
	return &Node{base: base, count: count}
}

// Base returns the first pin of the node.
func (n *Node) Base() int {
	return n.base
}

// Count returns the number of pins the node claims.
func (n *Node) Count() int {
	return n.count
}

// Last returns the last pin of the node.
func (n *Node) Last() int {
	return n.base + n.count - 1
}

// Contains reports whether pin falls inside the node's range.
func (n *Node) Contains(pin int) bool {
	return pin >= n.base && pin-n.base < n.count
}

// Driver returns the installed driver, or nil if none has been installed.
func (n *Node) Driver() Driver {
	box := n.driver.Load()
	if box == nil {
		return nil
	}
	return box.d
}

// SetDriver installs d as the node's driver, replacing any previous one. A nil d makes the
// node inert again.
func (n *Node) SetDriver(d Driver) {
	if d == nil {
		n.driver.Store(nil)
		return
	}
	n.driver.Store(&driverBox{d: d})
}

func (n *Node) overlaps(base, count int) bool {
	return base <= n.Last() && n.base <= base+count-1
}
