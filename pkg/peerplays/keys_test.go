package peerplays

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromWIF(t *testing.T) {
	const wif = "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ"

	key, err := FromWIF(wif)
	require.NoError(t, err)
	require.Equal(t,
		"0c28fca386c7a227600b2fe50b7cae11ec86d3bf1fbe471be89827e19d72aa1d",
		hex.EncodeToString(key.key.Serialize()),
	)
	require.Equal(t, wif, key.WIF())

	_, err = FromWIF(wif[:len(wif)-1] + "K")
	require.Error(t, err)
}

func TestFromPassword(t *testing.T) {
	a, err := FromPassword("alice", "active", "secret")
	require.NoError(t, err)

	b, err := FromPassword("alice", "active", "secret")
	require.NoError(t, err)
	require.Equal(t, a.WIF(), b.WIF())

	owner, err := FromPassword("alice", "owner", "secret")
	require.NoError(t, err)
	require.NotEqual(t, a.WIF(), owner.WIF())

	_, err = FromPassword("alice", "active", "")
	require.Error(t, err)
}

func TestPublicKeyString(t *testing.T) {
	key, err := FromPassword("alice", "active", "secret")
	require.NoError(t, err)

	s := key.PublicKey().String("TEST")
	require.True(t, strings.HasPrefix(s, "TEST"))
	require.Equal(t, s, key.PublicKey().String("TEST"))
}
