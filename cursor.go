package siglog

import (
	"github.com/nesv/siglog/array"
	"github.com/nesv/siglog/container"
)

// cursor tracks the next unread row of one signal's table.
type cursor struct {
	signal string
	table  *container.Table
	row    int // Index of the next row to be read.
	rows   int

	next   float64 // Time of the next row; valid when peeked.
	peeked bool
}

func newCursor(signal string, table *container.Table) *cursor {
	return &cursor{
		signal: signal,
		table:  table,
		rows:   table.NumRows(),
	}
}

// exhausted reports whether every row has been read.
func (c *cursor) exhausted() bool {
	return c.row >= c.rows
}

// peek returns the time of the next row, without consuming it.
func (c *cursor) peek() (float64, error) {
	if !c.peeked {
		t, err := c.table.Time(c.row)
		if err != nil {
			return 0, err
		}
		c.next, c.peeked = t, true
	}
	return c.next, nil
}

// read consumes the next row.
func (c *cursor) read() (float64, *array.Array, error) {
	t, v, err := c.table.Row(c.row)
	if err != nil {
		return 0, nil, err
	}
	c.row++
	c.peeked = false
	return t, v, nil
}
