package review

// Cursor tracks the position in an ordered catalog of n images and the
// history of positions visited before the current one. Position n means the
// catalog is exhausted and the cursor is finished.
type Cursor struct {
	n       int
	pos     int
	history []int
}

// NewCursor returns a cursor at start over n images. Out-of-range starts are
// clamped to the first image.
func NewCursor(n, start int) *Cursor {
	if start < 0 || start >= n {
		start = 0
	}
	return &Cursor{n: n, pos: start}
}

// Position returns the current position in [0, n].
func (c *Cursor) Position() int { return c.pos }

// Len returns the catalog length.
func (c *Cursor) Len() int { return c.n }

// Finished reports whether the cursor has moved past the last image.
func (c *Cursor) Finished() bool { return c.pos >= c.n }

// History returns a copy of the visited positions, oldest first.
func (c *Cursor) History() []int {
	out := make([]int, len(c.history))
	copy(out, c.history)
	return out
}

// Advance moves to the next position after a successful label. Moving past
// the last image finishes the cursor.
func (c *Cursor) Advance() error {
	if c.Finished() {
		return ErrFinished
	}
	c.push(c.pos)
	c.pos++
	return nil
}

// Skip moves to the next image without labelling. It refuses to leave the
// last image, which must be labelled or finished explicitly.
func (c *Cursor) Skip() error {
	if c.Finished() {
		return ErrFinished
	}
	if c.pos >= c.n-1 {
		return &BoundaryError{Edge: EdgeLast}
	}
	c.push(c.pos)
	c.pos++
	return nil
}

// StepBack returns to the most recent distinct position in history.
func (c *Cursor) StepBack() error {
	if c.Finished() {
		return ErrFinished
	}
	for len(c.history) > 0 {
		last := c.history[len(c.history)-1]
		c.history = c.history[:len(c.history)-1]
		if last != c.pos {
			c.pos = last
			return nil
		}
	}
	return &BoundaryError{Edge: EdgeFirst}
}

// JumpTo moves directly to position p in [0, n).
func (c *Cursor) JumpTo(p int) error {
	if c.Finished() {
		return ErrFinished
	}
	if p < 0 || p >= c.n {
		return &RangeError{Position: p, Len: c.n}
	}
	if p == c.pos {
		return nil
	}
	c.push(c.pos)
	c.pos = p
	return nil
}

func (c *Cursor) push(p int) {
	if len(c.history) > 0 && c.history[len(c.history)-1] == p {
		return
	}
	c.history = append(c.history, p)
}
