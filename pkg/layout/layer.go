package layout

import (
	"fmt"

	"github.com/biogo/store/llrb"
)

// Layer is a row of non-overlapping blocks in ascending start order.
type Layer struct {
	blocks []*Block
}

// Add appends b to the layer. b must start after the stop of the last block.
func (r *Layer) Add(b *Block) error {
	if last := r.Last(); last != nil && b.absStart <= last.absStop {
		return fmt.Errorf("cannot add %s to layer, it overlaps %s", b, last)
	}
	r.blocks = append(r.blocks, b)
	return nil
}

func (r *Layer) Blocks() []*Block { return r.blocks }
func (r *Layer) Len() int         { return len(r.blocks) }

// Last returns the block with the highest start, nil for an empty layer.
func (r *Layer) Last() *Block {
	if len(r.blocks) == 0 {
		return nil
	}
	return r.blocks[len(r.blocks)-1]
}

// BlockContainer holds blocks ordered by start position. Blocks with the
// same start keep the order in which they were added.
type BlockContainer struct {
	tree llrb.Tree
	next int
}

func NewBlockContainer() *BlockContainer {
	return &BlockContainer{}
}

func (r *BlockContainer) Add(b *Block) {
	b.uid = r.next
	r.next++
	r.tree.Insert(b)
}

func (r *BlockContainer) Remove(b *Block) {
	r.tree.Delete(b)
}

func (r *BlockContainer) Len() int { return r.tree.Len() }

// Min returns the block with the lowest start, nil when empty.
func (r *BlockContainer) Min() *Block {
	return asBlock(r.tree.Min())
}

// NextFrom returns the first block starting at or after pos, nil when there
// is none.
func (r *BlockContainer) NextFrom(pos int) *Block {
	return asBlock(r.tree.Ceil(&Block{absStart: pos, uid: -1}))
}

// Blocks returns all blocks in order.
func (r *BlockContainer) Blocks() []*Block {
	out := make([]*Block, 0, r.tree.Len())
	r.tree.Do(func(c llrb.Comparable) bool {
		out = append(out, c.(*Block))
		return false
	})
	return out
}

func asBlock(c llrb.Comparable) *Block {
	if c == nil {
		return nil
	}
	return c.(*Block)
}
