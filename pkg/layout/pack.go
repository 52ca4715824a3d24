package layout

import (
	"container/heap"
	"fmt"
	"strings"
)

// Strategy selects how blocks are packed into layers.
type Strategy string

const (
	// Greedy fills one layer at a time, always taking the next block that
	// starts after the last one placed.
	Greedy Strategy = "greedy"
	// Partition places every block into the layer that became free the
	// earliest, opening a new layer only when none is free.
	Partition Strategy = "partition"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case Greedy, "":
		return Greedy, nil
	case Partition:
		return Partition, nil
	}
	return "", fmt.Errorf("unknown layout strategy %q, expected %s or %s", s, Greedy, Partition)
}

// pack drains c into layers.
func pack(c *BlockContainer, s Strategy) ([]*Layer, error) {
	if s == Partition {
		return packPartition(c)
	}
	return packGreedy(c)
}

func packGreedy(c *BlockContainer) ([]*Layer, error) {
	var layers []*Layer
	for c.Len() > 0 {
		layer := &Layer{}
		for b := c.Min(); b != nil; b = c.NextFrom(b.absStop + 1) {
			c.Remove(b)
			if err := layer.Add(b); err != nil {
				return nil, err
			}
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

func packPartition(c *BlockContainer) ([]*Layer, error) {
	var layers []*Layer
	free := &layerHeap{}
	for b := c.Min(); b != nil; b = c.Min() {
		c.Remove(b)
		if free.Len() > 0 && (*free)[0].Last().absStop < b.absStart {
			l := (*free)[0]
			if err := l.Add(b); err != nil {
				return nil, err
			}
			heap.Fix(free, 0)
			continue
		}
		l := &Layer{}
		if err := l.Add(b); err != nil {
			return nil, err
		}
		layers = append(layers, l)
		heap.Push(free, l)
	}
	return layers, nil
}

// layerHeap orders non-empty layers by the stop of their last block.
type layerHeap []*Layer

func (h layerHeap) Len() int           { return len(h) }
func (h layerHeap) Less(i, j int) bool { return h[i].Last().absStop < h[j].Last().absStop }
func (h layerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *layerHeap) Push(x any) { *h = append(*h, x.(*Layer)) }

func (h *layerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
