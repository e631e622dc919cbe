package entrypoint

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Permissions is the outcome of permission resolution. When Manage is false
// nothing is changed on disk and Consul keeps the identity of the invoking
// user, so Owner and Group are empty.
type Permissions struct {
	Manage               bool
	Owner                string
	Group                string
	AllowPrivilegedPorts bool
}

// ResolvePermissions decides ownership and capabilities from config.
func ResolvePermissions(config *Config) Permissions {
	if config.DisablePermissionManagement {
		return Permissions{AllowPrivilegedPorts: config.AllowPrivilegedPorts}
	}

	return Permissions{
		Manage:               true,
		Owner:                ServiceAccount,
		Group:                ServiceAccount,
		AllowPrivilegedPorts: config.AllowPrivilegedPorts,
	}
}

// ManagePermissions applies perms: the data and config directories are
// created when missing and recursively handed to the service account, and the
// Consul binary gets or loses the privileged port capability. Changes already
// applied are not rolled back on failure; re-running converges.
func ManagePermissions(sys System, layout Layout, perms Permissions) error {
	if !perms.Manage {
		zlog.Info("permission management disabled, leaving ownership and capabilities untouched")
		return nil
	}

	cred, err := sys.LookupAccount(perms.Owner, perms.Group)
	if err != nil {
		return fmt.Errorf("failed to resolve service account: %w", err)
	}

	for _, dir := range []string{layout.DataDir, layout.ConfigDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}

		count, err := chownTree(sys, dir, cred)
		if err != nil {
			return err
		}

		zlog.Info("changed ownership",
			zap.String("path", dir),
			zap.String("owner", perms.Owner),
			zap.String("group", perms.Group),
			zap.Int("entries", count))
	}

	if perms.AllowPrivilegedPorts {
		if err := sys.GrantBindCapability(layout.Binary); err != nil {
			return fmt.Errorf("failed to allow privileged ports: %w", err)
		}
		zlog.Info("granted cap_net_bind_service", zap.String("binary", layout.Binary))
		return nil
	}

	if err := sys.ClearCapabilities(layout.Binary); err != nil {
		return fmt.Errorf("failed to clear capabilities: %w", err)
	}
	zlog.Debug("cleared binary capabilities", zap.String("binary", layout.Binary))

	return nil
}

// chownTree changes ownership of root and everything below it, without
// following symlinks.
func chownTree(sys System, root string, cred Credential) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := sys.Lchown(path, cred.UID, cred.GID); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to change ownership of %s: %w", root, err)
	}
	return count, nil
}

// runAs returns the identity Consul must be launched with.
func (p Permissions) runAs(sys System) (*Credential, error) {
	if !p.Manage {
		return nil, nil
	}

	cred, err := sys.LookupAccount(p.Owner, p.Group)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve run-as account: %w", err)
	}
	return &cred, nil
}
