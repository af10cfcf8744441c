package session

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestResetSealer_RoundTrip(t *testing.T) {
	sealer, err := NewResetSealer(testKey(1))
	require.NoError(t, err)

	userID := uuid.New()
	token, err := sealer.Seal(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := sealer.Open(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestResetSealer_KeyLength(t *testing.T) {
	_, err := NewResetSealer([]byte("too short"))
	assert.Error(t, err)
}

func TestResetSealer_TamperedToken(t *testing.T) {
	sealer, err := NewResetSealer(testKey(1))
	require.NoError(t, err)

	token, err := sealer.Seal(uuid.New())
	require.NoError(t, err)

	tampered := "A" + token[1:]
	_, err = sealer.Open(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResetSealer_GarbageToken(t *testing.T) {
	sealer, err := NewResetSealer(testKey(1))
	require.NoError(t, err)

	_, err = sealer.Open("not base64 !!!")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = sealer.Open("")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResetSealer_WrongKey(t *testing.T) {
	sealer1, err := NewResetSealer(testKey(1))
	require.NoError(t, err)
	sealer2, err := NewResetSealer(testKey(2))
	require.NoError(t, err)

	token, err := sealer1.Seal(uuid.New())
	require.NoError(t, err)

	_, err = sealer2.Open(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResetSealer_TokensDiffer(t *testing.T) {
	sealer, err := NewResetSealer(testKey(1))
	require.NoError(t, err)

	userID := uuid.New()
	t1, err := sealer.Seal(userID)
	require.NoError(t, err)
	t2, err := sealer.Seal(userID)
	require.NoError(t, err)

	// Random nonce makes every token unique
	assert.NotEqual(t, t1, t2)
}
