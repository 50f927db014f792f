package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTipOrder(t *testing.T) {
	tests := []struct {
		in   string
		want TipOrder
		ok   bool
	}{
		{"", OrderLatest, true},
		{"latest", OrderLatest, true},
		{"random", OrderRandom, true},
		{"oldest", OrderLatest, false},
		{"RANDOM", OrderLatest, false},
	}
	for _, tt := range tests {
		got, ok := ParseTipOrder(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
