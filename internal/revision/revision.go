// Package revision reads the 4-bit hardware/assembly revision straps:
// four GPIO input lines compose a lookup-table index identifying the
// board revision.
package revision

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/tudordesign/rgbw-drv-go/internal/config"
)

const invalidRevision = "INVALID HW / ASSY REVISION VALUE"

// Reader holds the revision sampled at startup. The strap lines are
// released as soon as they have been read; the value cannot change
// without a board swap.
type Reader struct {
	index    int
	revision string
}

// New samples the strap lines and resolves the revision string.
func New(cfg config.RevisionConfig) (*Reader, error) {
	lines, err := gpiocdev.RequestLines(cfg.Chip, cfg.Lines, gpiocdev.AsInput)
	if err != nil {
		return nil, fmt.Errorf("unable to request revision gpio lines: %w", err)
	}
	defer lines.Close()

	values := make([]int, len(cfg.Lines))
	if err := lines.Values(values); err != nil {
		return nil, fmt.Errorf("unable to read revision gpio lines: %w", err)
	}

	idx := indexFromBits(values)
	return &Reader{
		index:    idx,
		revision: lookup(cfg.Table, idx),
	}, nil
}

// indexFromBits composes the line values into an index, values[0]
// being the least significant bit.
func indexFromBits(values []int) int {
	idx := 0
	for i := len(values) - 1; i >= 0; i-- {
		idx <<= 1
		if values[i] != 0 {
			idx |= 1
		}
	}
	return idx
}

func lookup(table []string, idx int) string {
	if idx < 0 || idx >= len(table) {
		return invalidRevision
	}
	return table[idx]
}

// Index reports the raw lookup-table index.
func (r *Reader) Index() int {
	return r.index
}

// Revision reports the resolved board revision string.
func (r *Reader) Revision() string {
	return r.revision
}
