//go:build linux

package entrypoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os/user"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

const capabilityXattr = "security.capability"

// VFS file capability layout (linux/capability.h), revision 2.
const (
	vfsCapRevision2      = 0x02000000
	vfsCapFlagsEffective = 0x000001
)

// OSSystem is the System of the running Linux host.
type OSSystem struct{}

func (OSSystem) LookupAccount(name, group string) (Credential, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return Credential{}, fmt.Errorf("lookup user %q: %w", name, err)
	}

	g, err := user.LookupGroup(group)
	if err != nil {
		return Credential{}, fmt.Errorf("lookup group %q: %w", group, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Credential{}, fmt.Errorf("invalid uid %q for user %q: %w", u.Uid, name, err)
	}

	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return Credential{}, fmt.Errorf("invalid gid %q for group %q: %w", g.Gid, group, err)
	}

	return Credential{UID: uid, GID: gid}, nil
}

func (OSSystem) Lchown(path string, uid, gid int) error {
	if err := unix.Lchown(path, uid, gid); err != nil {
		return fmt.Errorf("chown %s: %w", path, err)
	}
	return nil
}

// bindCapabilityXattr encodes a vfs_cap_data v2 with CAP_NET_BIND_SERVICE in
// the permitted set and the effective flag set.
func bindCapabilityXattr() []byte {
	data := make([]byte, 20)
	binary.LittleEndian.PutUint32(data[0:4], vfsCapRevision2|vfsCapFlagsEffective)
	binary.LittleEndian.PutUint32(data[4:8], 1<<unix.CAP_NET_BIND_SERVICE)
	return data
}

func (OSSystem) GrantBindCapability(path string) error {
	if err := unix.Setxattr(path, capabilityXattr, bindCapabilityXattr(), 0); err != nil {
		return fmt.Errorf("set capability on %s: %w", path, err)
	}
	return nil
}

func (OSSystem) ClearCapabilities(path string) error {
	err := unix.Removexattr(path, capabilityXattr)
	if err == nil || errors.Is(err, unix.ENODATA) {
		return nil
	}
	return fmt.Errorf("remove capabilities from %s: %w", path, err)
}

func (OSSystem) Exec(path string, argv []string, env []string, cred *Credential) error {
	if cred != nil {
		// The syscall package variants apply to every thread of the process.
		if err := syscall.Setgroups([]int{cred.GID}); err != nil {
			return fmt.Errorf("setgroups %d: %w", cred.GID, err)
		}
		if err := syscall.Setgid(cred.GID); err != nil {
			return fmt.Errorf("setgid %d: %w", cred.GID, err)
		}
		if err := syscall.Setuid(cred.UID); err != nil {
			return fmt.Errorf("setuid %d: %w", cred.UID, err)
		}
	}

	return unix.Exec(path, argv, env)
}
