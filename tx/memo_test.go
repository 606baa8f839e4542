package tx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileMemo(t *testing.T) {
	s, err := CompileMemo("SWAP:THOR.RUNE")
	require.NoError(t, err)

	// OP_RETURN, push 14, payload
	require.Len(t, s, 16)
	assert.Equal(t, byte(0x6a), s[0])
	assert.Equal(t, byte(14), s[1])
	assert.Equal(t, "SWAP:THOR.RUNE", string(s[2:]))
}

func TestCompileMemo_PushData1(t *testing.T) {
	memo := strings.Repeat("m", 100)
	s, err := CompileMemo(memo)
	require.NoError(t, err)

	// OP_RETURN, OP_PUSHDATA1, len, payload
	require.Len(t, s, 103)
	assert.Equal(t, byte(0x4c), s[1])
	assert.Equal(t, byte(100), s[2])
}

func TestCompileMemo_Invalid(t *testing.T) {
	_, err := CompileMemo("")
	assert.ErrorIs(t, err, ErrInvalidMemo)

	_, err = CompileMemo(strings.Repeat("x", MaxMemoSize+1))
	assert.ErrorIs(t, err, ErrInvalidMemo)
}
