package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootFromBytes_PadsShortInput(t *testing.T) {
	got := RootFromBytes([]byte{1, 2, 3})
	want := Root{1, 2, 3}
	require.Equal(t, want, got)
}

func TestRootFromBytes_ExactLength(t *testing.T) {
	raw := make([]byte, 32)
	raw[31] = 0xff
	got := RootFromBytes(raw)
	require.Equal(t, byte(0xff), got[31])
}
