package batch

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrInvalidArgument is returned for a non-positive batch size.
var ErrInvalidArgument = errors.New("invalid argument")

// Of partitions src into consecutive batches of size items. The last batch
// holds the remainder (1..size items); an empty source yields no batches.
//
// The size is validated here, before anything is pulled from src. The
// returned sequence is lazy: src is only advanced as batches are consumed, and
// each range over the result ranges src again.
func Of[T any](src iter.Seq[T], size int) (iter.Seq[[]T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be > 0, got %d: %w", size, ErrInvalidArgument)
	}

	return func(yield func([]T) bool) {
		cur := make([]T, 0, size)
		for item := range src {
			cur = append(cur, item)
			if len(cur) < size {
				continue
			}
			if !yield(cur) {
				return
			}
			cur = make([]T, 0, size)
		}
		if len(cur) > 0 {
			yield(cur)
		}
	}, nil
}

// Slice is Of over the elements of items.
func Slice[T any](items []T, size int) (iter.Seq[[]T], error) {
	return Of(slices.Values(items), size)
}
