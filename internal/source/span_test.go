package source

import "testing"

func TestSpanCover(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Span
		expected Span
	}{
		{"disjoint", Span{1, 2, 4}, Span{1, 8, 10}, Span{1, 2, 10}},
		{"nested", Span{1, 0, 10}, Span{1, 3, 4}, Span{1, 0, 10}},
		{"other file", Span{1, 2, 4}, Span{2, 0, 10}, Span{1, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cover(tt.b); got != tt.expected {
				t.Errorf("Cover() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSpanShift(t *testing.T) {
	local := Span{Start: 0, End: 6}
	got := local.Shift(13, 4)
	want := Span{File: 4, Start: 13, End: 19}
	if got != want {
		t.Errorf("Shift() = %v, want %v", got, want)
	}
	if !got.Contains(13) || got.Contains(19) {
		t.Errorf("Contains is not half-open for %v", got)
	}
}
