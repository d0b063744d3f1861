package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingCounts_Done(t *testing.T) {
	tests := []struct {
		name   string
		counts EmbeddingCounts
		done   bool
	}{
		{"all zero never ran", EmbeddingCounts{}, false},
		{"completed and drained", EmbeddingCounts{Completed: 12}, true},
		{"failed still terminal", EmbeddingCounts{Failed: 3}, true},
		{"completed and failed", EmbeddingCounts{Completed: 9, Failed: 1}, true},
		{"still waiting", EmbeddingCounts{Waiting: 2, Completed: 10}, false},
		{"still active", EmbeddingCounts{Active: 1, Completed: 10}, false},
		{"delayed blocks", EmbeddingCounts{Delayed: 1, Completed: 10}, false},
		{"prioritized blocks", EmbeddingCounts{Prioritized: 1, Completed: 10}, false},
		{"paused blocks", EmbeddingCounts{Paused: 1, Completed: 10}, false},
		{"waiting-children blocks", EmbeddingCounts{WaitingChildren: 1, Completed: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.done, tt.counts.Done())
		})
	}
}

func TestEmbeddingCounts_Pending(t *testing.T) {
	counts := EmbeddingCounts{
		Waiting: 1, Active: 2, Delayed: 3, Prioritized: 4,
		Paused: 5, WaitingChildren: 6, Completed: 100, Failed: 7,
	}
	assert.Equal(t, int64(21), counts.Pending())
}
