// Package snowflake stamps store events with ids that increase per node, so a
// consumer of the event log can order and deduplicate them.
package snowflake

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	nodeBits        = 10
	stepBits        = 12
	NodeMax         = -1 ^ (-1 << nodeBits)
	stepMask        = -1 ^ (-1 << stepBits)
	timeShift       = nodeBits + stepBits
	nodeShift       = stepBits
	epoch     int64 = 1704067200000 // 2024-01-01 00:00:00 UTC
)

var ErrInvalidNode = errors.New("invalid snowflake node")

type Node struct {
	mu    sync.Mutex
	last  int64
	node  int64
	step  int64
	clock func() int64
}

func NewNode(node int64) (*Node, error) {
	if node < 0 || node > NodeMax {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidNode, node, NodeMax)
	}
	return &Node{
		node:  node,
		clock: func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Generate never returns the same id twice for a node, even if the wall
// clock steps backwards: the last observed millisecond is reused instead.
func (n *Node) Generate() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.clock()
	if now < n.last {
		now = n.last
	}

	if now == n.last {
		n.step = (n.step + 1) & stepMask
		if n.step == 0 {
			for now <= n.last {
				now = n.clock()
			}
		}
	} else {
		n.step = 0
	}
	n.last = now

	return ((now - epoch) << timeShift) | (n.node << nodeShift) | n.step
}

// NodeOf extracts the node number an id was generated on.
func NodeOf(id int64) int64 {
	return (id >> nodeShift) & NodeMax
}
