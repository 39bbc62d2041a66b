// Package chunk partitions ordered slices into bounded, contiguous groups.
package chunk

// Split partitions items into contiguous chunks of at most size elements,
// preserving order. The last chunk holds the remainder.
// A size below 1 is treated as 1. An empty input yields no chunks.
func Split[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	if len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, Count(len(items), size))
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// Count returns the number of chunks Split produces for n items,
// i.e. ceil(n/size).
func Count(n, size int) int {
	if size < 1 {
		size = 1
	}
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
