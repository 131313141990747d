package ledger

import "testing"

func TestRecordsPerChunk(t *testing.T) {
	cases := []struct{ ops, per, want int }{
		{500, 3, 166},
		{450, 3, 150},
		{500, 2, 250},
		{0, 1, 500},
		{10000, 1, 500},
		{2, 3, 1},
	}
	for _, tc := range cases {
		if got := RecordsPerChunk(tc.ops, tc.per); got != tc.want {
			t.Fatalf("RecordsPerChunk(%d,%d)=%d want=%d", tc.ops, tc.per, got, tc.want)
		}
	}
}

func TestChunk(t *testing.T) {
	items := make([]int, 1001)
	chunks := Chunk(items, 500)
	if len(chunks) != 3 || len(chunks[0]) != 500 || len(chunks[2]) != 1 {
		t.Fatalf("chunks=%d", len(chunks))
	}
	if Chunk([]int{}, 10) != nil {
		t.Fatalf("empty input must yield nil")
	}
}
