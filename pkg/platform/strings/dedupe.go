// Package strings provides string list helpers shared by config parsing.
package strings

import (
	"strings"
)

// SplitList splits raw on sep, trims each element and drops empty or repeated
// elements. Order of first occurrence is preserved. An empty input yields nil.
//
//	SplitList(" kafka-1:9092, kafka-2:9092,,kafka-1:9092 ", ",")
//	// []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(raw, sep string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, sep) {
		v := strings.TrimSpace(part)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
