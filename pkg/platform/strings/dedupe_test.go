package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "empty", raw: "", expected: nil},
		{name: "only separators and spaces", raw: " , ,, ", expected: nil},
		{name: "single element", raw: "localhost:9092", expected: []string{"localhost:9092"}},
		{
			name:     "trims and dedupes preserving order",
			raw:      " kafka-2:9092, kafka-1:9092,,kafka-2:9092 ",
			expected: []string{"kafka-2:9092", "kafka-1:9092"},
		},
		{name: "dedupe is case-sensitive", raw: "a,A", expected: []string{"a", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.raw, ","))
		})
	}
}
