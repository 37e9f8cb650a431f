// Package encoded reads the row index statistics of ORC-like files: for
// every stripe, the column statistics of each of its row groups.
package encoded

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/orcsarg/internal/stats"
)

// AllRowGroups as a BatchKey row group selects the statistics of the whole
// stripe.
const AllRowGroups = -1

// BatchKey identifies one row group of one stripe of one file.
type BatchKey struct {
	FileID   int64
	Stripe   int
	RowGroup int
}

func (k BatchKey) String() string {
	if k.RowGroup == AllRowGroups {
		return fmt.Sprintf("%d/%d/*", k.FileID, k.Stripe)
	}
	return fmt.Sprintf("%d/%d/%d", k.FileID, k.Stripe, k.RowGroup)
}

// ErrNotFound marks a file, stripe or row group that does not exist.
var ErrNotFound = errors.New("not found")

// StatsReader gives access to row index statistics.
type StatsReader interface {
	// Layout returns the number of row groups of every stripe of a file.
	Layout(ctx context.Context, fileID int64) ([]int, error)
	// RowGroupStatistics returns the statistics of one row group, or of a
	// whole stripe when key.RowGroup is AllRowGroups.
	RowGroupStatistics(ctx context.Context, key BatchKey) (stats.RowGroup, error)
}

// IndexReader serves statistics from decoded file indexes held in memory.
type IndexReader struct {
	files map[int64]*FileIndex
}

// NewIndexReader returns a reader over the given indexes.
func NewIndexReader(files ...*FileIndex) *IndexReader {
	r := &IndexReader{files: make(map[int64]*FileIndex, len(files))}
	for _, f := range files {
		r.files[f.FileID] = f
	}
	return r
}

func (r *IndexReader) file(fileID int64) (*FileIndex, error) {
	f, ok := r.files[fileID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "file %d", fileID)
	}
	return f, nil
}

func (r *IndexReader) Layout(ctx context.Context, fileID int64) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := r.file(fileID)
	if err != nil {
		return nil, err
	}
	return f.Layout(), nil
}

func (r *IndexReader) RowGroupStatistics(ctx context.Context, key BatchKey) (stats.RowGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := r.file(key.FileID)
	if err != nil {
		return nil, err
	}
	if key.RowGroup == AllRowGroups {
		return f.StripeStatistics(key.Stripe)
	}
	return f.RowGroup(key.Stripe, key.RowGroup)
}
