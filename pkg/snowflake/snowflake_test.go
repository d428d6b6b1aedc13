package snowflake

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewNode_Range(t *testing.T) {
	req := require.New(t)
	_, err := NewNode(-1)
	req.ErrorIs(err, ErrInvalidNode)
	_, err = NewNode(NodeMax + 1)
	req.ErrorIs(err, ErrInvalidNode)

	node, err := NewNode(NodeMax)
	req.NoError(err)
	req.Equal(int64(NodeMax), NodeOf(node.Generate()))
}

func TestGenerate_StrictlyIncreasing(t *testing.T) {
	req := require.New(t)
	node, err := NewNode(7)
	req.NoError(err)

	previous := node.Generate()
	for range 10000 {
		next := node.Generate()
		req.Greater(next, previous)
		req.Equal(int64(7), NodeOf(next))
		previous = next
	}
}

func TestGenerate_ClockGoingBackwards(t *testing.T) {
	req := require.New(t)
	node, err := NewNode(1)
	req.NoError(err)

	ticks := []int64{epoch + 1000, epoch + 500, epoch + 1001}
	node.clock = func() int64 {
		tick := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return tick
	}

	first := node.Generate()
	second := node.Generate()
	third := node.Generate()
	req.Greater(second, first)
	req.Greater(third, second)
}

func TestGenerate_ConcurrentUnique(t *testing.T) {
	req := require.New(t)
	node, err := NewNode(3)
	req.NoError(err)

	const workers, perWorker = 8, 500
	ids := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				ids <- node.Generate()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{}, workers*perWorker)
	for id := range ids {
		_, dup := seen[id]
		req.False(dup)
		seen[id] = struct{}{}
	}
	req.Len(seen, workers*perWorker)
}
