//go:build !linux

package entrypoint

import (
	"errors"
)

var errUnsupportedPlatform = errors.New("only supported on linux")

// OSSystem is unavailable outside Linux; only dry runs work there.
type OSSystem struct{}

func (OSSystem) LookupAccount(name, group string) (Credential, error) {
	return Credential{}, errUnsupportedPlatform
}

func (OSSystem) Lchown(path string, uid, gid int) error {
	return errUnsupportedPlatform
}

func (OSSystem) GrantBindCapability(path string) error {
	return errUnsupportedPlatform
}

func (OSSystem) ClearCapabilities(path string) error {
	return errUnsupportedPlatform
}

func (OSSystem) Exec(binary string, argv []string, env []string, cred *Credential) error {
	return errUnsupportedPlatform
}
