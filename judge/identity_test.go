package judge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityPoolRotates(t *testing.T) {
	p := NewIdentityPool(2000, 2001, 3000, 3000)

	uid1, gid1 := p.Allocate()
	uid2, gid2 := p.Allocate()
	uid3, gid3 := p.Allocate()

	require.Equal(t, 2000, uid1)
	require.Equal(t, 2001, uid2)
	require.Equal(t, 2000, uid3)

	require.Equal(t, 3000, gid1)
	require.Equal(t, 3000, gid2)
	require.Equal(t, 3000, gid3)
}

func TestIdentityPoolSingleValueRange(t *testing.T) {
	p := NewIdentityPool(500, 500, 600, 600)

	for i := 0; i < 5; i++ {
		uid, gid := p.Allocate()
		require.Equal(t, 500, uid)
		require.Equal(t, 600, gid)
	}
}
