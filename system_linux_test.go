//go:build linux

package entrypoint

import (
	"os"
	"os/user"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindCapabilityXattr(t *testing.T) {
	// Same bytes `setcap cap_net_bind_service=+ep` writes.
	want := []byte{
		0x01, 0x00, 0x00, 0x02,
		0x00, 0x04, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	assert.Equal(t, want, bindCapabilityXattr())
}

func TestOSSystem_LookupAccount(t *testing.T) {
	current, err := user.Current()
	require.NoError(t, err)
	group, err := user.LookupGroupId(current.Gid)
	require.NoError(t, err)

	cred, err := OSSystem{}.LookupAccount(current.Username, group.Name)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(cred.UID), current.Uid)
	assert.Equal(t, strconv.Itoa(cred.GID), current.Gid)

	_, err = OSSystem{}.LookupAccount("no-such-user-consul-entrypoint", group.Name)
	assert.Error(t, err)
}

func TestOSSystem_LchownToSelf(t *testing.T) {
	path := t.TempDir()

	require.NoError(t, OSSystem{}.Lchown(path, os.Getuid(), os.Getgid()))
	assert.Error(t, OSSystem{}.Lchown(path+"/missing", os.Getuid(), os.Getgid()))
}
