package playback

// cursorState is the position classification of a block cursor. BeforeStart
// and AfterEnd are distinct terminal markers so alternating next/previous at
// a boundary stays directionally symmetric: next from beforeStart returns the
// first block, previous from afterEnd returns the last.
type cursorState int

const (
	cursorUnpositioned cursorState = iota
	cursorAtBlock
	cursorBeforeStart
	cursorAfterEnd
	// cursorSeeked is the pre-cursor anchor set by seek: pos is the first
	// block with timestamp >= the target, so next returns pos and previous
	// returns pos-1.
	cursorSeeked
)

// blockCursor is a bidirectional stateful iterator over one track's blocks.
// It never re-returns the current block when stepping: next and previous
// always move strictly in index space.
type blockCursor struct {
	index *trackIndex
	state cursorState
	pos   int
}

func newBlockCursor(index *trackIndex) *blockCursor {
	return &blockCursor{index: index, state: cursorUnpositioned}
}

// seek repositions so that a subsequent next returns the first block with
// timestamp >= targetNS and a subsequent previous returns the last block with
// timestamp < targetNS.
func (c *blockCursor) seek(targetNS uint64) {
	c.state = cursorSeeked
	c.pos = c.index.search(targetNS)
}

// peekNext returns the block position next would return, without moving.
func (c *blockCursor) peekNext() (int, bool) {
	n := c.index.frameCount()
	switch c.state {
	case cursorUnpositioned, cursorBeforeStart:
		if n > 0 {
			return 0, true
		}
	case cursorAtBlock:
		if c.pos+1 < n {
			return c.pos + 1, true
		}
	case cursorSeeked:
		if c.pos < n {
			return c.pos, true
		}
	case cursorAfterEnd:
	}
	return 0, false
}

// peekPrev returns the block position previous would return, without moving.
func (c *blockCursor) peekPrev() (int, bool) {
	n := c.index.frameCount()
	switch c.state {
	case cursorAfterEnd:
		if n > 0 {
			return n - 1, true
		}
	case cursorAtBlock:
		if c.pos-1 >= 0 {
			return c.pos - 1, true
		}
	case cursorSeeked:
		if c.pos-1 >= 0 {
			return c.pos - 1, true
		}
	case cursorUnpositioned, cursorBeforeStart:
	}
	return 0, false
}

// next advances the cursor. The second result is false at end of stream, in
// which case the cursor rests at afterEnd and stays there.
func (c *blockCursor) next() (int, bool) {
	pos, ok := c.peekNext()
	if !ok {
		c.state = cursorAfterEnd
		return 0, false
	}
	c.state = cursorAtBlock
	c.pos = pos
	return pos, true
}

// prev steps the cursor backward. The second result is false at start of
// stream, in which case the cursor rests at beforeStart and stays there.
func (c *blockCursor) prev() (int, bool) {
	pos, ok := c.peekPrev()
	if !ok {
		c.state = cursorBeforeStart
		return 0, false
	}
	c.state = cursorAtBlock
	c.pos = pos
	return pos, true
}
