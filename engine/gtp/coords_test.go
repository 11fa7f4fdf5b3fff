package gtp

import (
	"fmt"
	"testing"
)

func TestVertex(t *testing.T) {
	tests := []struct {
		x, y int
		want string
	}{
		{0, 0, "A1"},
		{3, 3, "D4"},
		{7, 0, "H1"},
		{8, 0, "J1"}, // I is skipped
		{9, 9, "K10"},
		{18, 18, "T19"},
		{24, 24, "Z25"},
	}
	for _, tt := range tests {
		got := Vertex(tt.x, tt.y)
		if got != tt.want {
			t.Errorf("Vertex(%d, %d) = %q, want %q", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSGFFromVertex(t *testing.T) {
	tests := []struct {
		vertex string
		want   string
		ok     bool
	}{
		{"a1", "aa", true},
		{"d4", "dd", true},
		{"h1", "ha", true},
		{"j1", "ia", true}, // column J maps to index 8
		{"k10", "jj", true},
		{"t19", "ss", true},
		{"Q16", "pp", true},
		{"z25", "yy", true},
		{"i5", "", false}, // I is not a GTP column
		{"d", "", false},
		{"dx", "", false},
		{"d0", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := SGFFromVertex(tt.vertex)
		if tt.ok != (err == nil) {
			t.Errorf("SGFFromVertex(%q) error = %v, want ok=%v", tt.vertex, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("SGFFromVertex(%q) = %q, want %q", tt.vertex, got, tt.want)
		}
	}
}

func TestVertexSGFRoundTrip(t *testing.T) {
	for dim := 2; dim <= 25; dim++ {
		for x := 0; x < dim; x++ {
			for y := 0; y < dim; y++ {
				vertex := Vertex(x, y)

				point, err := SGFFromVertex(vertex)
				if err != nil {
					t.Fatalf("dim %d: SGFFromVertex(%q): %v", dim, vertex, err)
				}
				if len(point) != 2 || point[0] < 'a' || point[0] > 'z' || point[1] < 'a' || point[1] > 'z' {
					t.Fatalf("dim %d: SGFFromVertex(%q) = %q, not two lowercase letters", dim, vertex, point)
				}

				back, err := VertexFromSGF(point)
				if err != nil {
					t.Fatalf("dim %d: VertexFromSGF(%q): %v", dim, point, err)
				}
				if back != vertex {
					t.Errorf("dim %d: round trip %q -> %q -> %q", dim, vertex, point, back)
				}
			}
		}
	}
}

func ExampleVertex() {
	fmt.Println(Vertex(8, 0))
	// Output: J1
}
