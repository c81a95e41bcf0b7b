package interp

import (
	"reflect"
	"testing"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single marker", "((a))", []string{"a"}},
		{"two markers with text", "f=((f))_h=((h))", []string{"f", "h"}},
		{"nested parentheses", "((int(`x`)))", []string{"int(`x`)"}},
		{"deeply nested", "((int(str(`x`))))", []string{"int(str(`x`))"}},
		{"unterminated open", "((a", nil},
		{"stray close before marker", "a)) ((b))", []string{"b"}},
		{"no markers", "plain text", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := scan(tt.input)
			var got []string
			for _, sp := range spans {
				got = append(got, sp.content)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected contents %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScan_SpanBounds(t *testing.T) {
	spans := scan("x=((a))!")
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	if spans[0].start != 2 || spans[0].end != 7 {
		t.Errorf("Expected span [2, 7), got [%d, %d)", spans[0].start, spans[0].end)
	}
}
