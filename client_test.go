package anchorarmy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmedAtDepth(t *testing.T) {
	tests := []struct {
		name          string
		head          uint64
		mined         uint64
		confirmations uint64
		expected      bool
	}{
		{"no blocks atop yet", 100, 100, 1, false},
		{"one block atop", 101, 100, 1, true},
		{"depth four not reached", 103, 100, 4, false},
		{"depth four reached", 104, 100, 4, true},
		{"deeper than required", 200, 100, 4, true},
		{"zero depth confirms at inclusion", 100, 100, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, confirmedAtDepth(tt.head, tt.mined, tt.confirmations))
		})
	}
}

func TestNewClientSigner_RequiresKey(t *testing.T) {
	_, err := NewClientSigner(context.Background(), "http://localhost:8545", nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
