package ledger

// MaxBatchOps is the default ceiling on writes grouped into one atomic unit.
const MaxBatchOps = 500

// BatchOps returns n when it is a usable ceiling, MaxBatchOps otherwise.
func BatchOps(n int) int {
	if n <= 0 || n > MaxBatchOps {
		return MaxBatchOps
	}
	return n
}

// RecordsPerChunk is how many records fit in one atomic unit when each costs opsPerRecord writes.
func RecordsPerChunk(maxOps, opsPerRecord int) int {
	maxOps = BatchOps(maxOps)
	if opsPerRecord <= 0 {
		opsPerRecord = 1
	}
	n := maxOps / opsPerRecord
	if n < 1 {
		return 1
	}
	return n
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = MaxBatchOps
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}
