package interp

import "strings"

// span is one interpolation marker found in a string. start and end
// delimit the whole marker including the delimiters; content is the
// text between them.
type span struct {
	start   int
	end     int
	content string
}

// hasMarker reports whether s may contain an interpolation marker.
func hasMarker(s string) bool {
	return strings.Contains(s, "((")
}

// scan finds every complete marker in s. The closing delimiter is the
// first "))" not followed by another ')', so expression parentheses
// such as ((int(x))) nest inside the marker. An opening "((" without a
// close is left as literal text.
func scan(s string) []span {
	var spans []span
	i := 0
	for {
		j := strings.Index(s[i:], "((")
		if j < 0 {
			return spans
		}
		open := i + j
		k := open + 2
		closed := false
		for {
			c := strings.Index(s[k:], "))")
			if c < 0 {
				break
			}
			abs := k + c
			if abs+2 < len(s) && s[abs+2] == ')' {
				k = abs + 1
				continue
			}
			spans = append(spans, span{start: open, end: abs + 2, content: s[open+2 : abs]})
			i = abs + 2
			closed = true
			break
		}
		if !closed {
			i = open + 2
		}
	}
}
