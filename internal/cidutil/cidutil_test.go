package cidutil

import (
	"testing"

	"github.com/shackstack/shackstack/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	t.Run("Determinism", func(t *testing.T) {
		a, err := Sum([]byte("deterministic content"))
		require.NoError(t, err)
		b, err := Sum([]byte("deterministic content"))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("DistinctContent", func(t *testing.T) {
		a, _ := Sum([]byte("one"))
		b, _ := Sum([]byte("two"))
		assert.NotEqual(t, a, b)
	})

}

func TestVerify(t *testing.T) {
	data := []byte("original payload")
	s, err := Sum(data)
	require.NoError(t, err)

	t.Run("Match", func(t *testing.T) {
		assert.NoError(t, Verify(s, data))
	})

	t.Run("BitFlip", func(t *testing.T) {
		corrupted := append([]byte(nil), data...)
		corrupted[3] ^= 0x01
		assert.ErrorIs(t, Verify(s, corrupted), common.ErrCorrupt)
	})

	t.Run("MalformedCID", func(t *testing.T) {
		assert.ErrorIs(t, Verify("not-a-cid", data), common.ErrCorrupt)
	})
}
