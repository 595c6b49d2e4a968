package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Low-cost parameters keep the test fast; the encoding round-trip is what is
// under test, not the hash strength.
var testParams = Argon2Params{
	Time:    1,
	Memory:  8 * 1024,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPasswordWithParams("correct horse battery staple", testParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(hash), "$argon2id$v=19$"))

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	first, err := HashPasswordWithParams("same password", testParams)
	require.NoError(t, err)
	second, err := HashPasswordWithParams("same password", testParams)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"not a hash",
		"$argon2i$v=19$t=1,m=8192,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$t=1,m=8192,p=1$c2FsdA",
		"$argon2id$v=19$t=1,m=8192,p=1$!!!$aGFzaA",
	} {
		_, err := VerifyPassword("whatever", []byte(encoded))
		assert.Error(t, err, "hash %q", encoded)
	}
}
