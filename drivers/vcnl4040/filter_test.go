package vcnl4040

import "testing"

func TestFilterMedianOverSlidingWindow(t *testing.T) {
	f := NewFilter[int32](5)

	inserts := []int32{3, 1, 4, 1, 5, 9, 2, 6}
	// Median of the last (up to) 5 values: sorted element at Len()/2.
	want := []int32{3, 3, 3, 3, 3, 4, 4, 5}

	for i, v := range inserts {
		f.Insert(v)
		got, ok := f.Median()
		if !ok {
			t.Fatalf("step %d: median reported empty", i)
		}
		if got != want[i] {
			t.Errorf("step %d: median = %d, want %d", i, got, want[i])
		}
	}
	if f.Len() != 5 {
		t.Errorf("Len = %d, want 5", f.Len())
	}
}

func TestFilterEmptyAndDefaults(t *testing.T) {
	f := NewFilter[uint16](0)
	if _, ok := f.Median(); ok {
		t.Error("empty filter reported a median")
	}
	for i := 0; i < DefaultFilterSize+3; i++ {
		f.Insert(uint16(i))
	}
	if f.Len() != DefaultFilterSize {
		t.Errorf("Len = %d, want %d", f.Len(), DefaultFilterSize)
	}
	// Last 9 of 0..11 are 3..11; median is the element at index 4.
	if got, _ := f.Median(); got != 7 {
		t.Errorf("median = %d, want 7", got)
	}
}
