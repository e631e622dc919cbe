package entrypoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type chownCall struct {
	Path string
	UID  int
	GID  int
}

type execCall struct {
	Binary string
	Argv   []string
	Env    []string
	Cred   *Credential
}

// fakeSystem records every OS call instead of performing it.
type fakeSystem struct {
	accounts map[string]Credential

	chowns       []chownCall
	granted      []string
	cleared      []string
	execs        []execCall
	chownErr     error
	capErr       error
	execErr      error
	lookupCalled int
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{
		accounts: map[string]Credential{
			ServiceAccount: {UID: 100, GID: 1000},
		},
	}
}

func (f *fakeSystem) LookupAccount(user, group string) (Credential, error) {
	f.lookupCalled++
	cred, ok := f.accounts[user]
	if !ok || user != group {
		return Credential{}, fmt.Errorf("unknown account %s:%s", user, group)
	}
	return cred, nil
}

func (f *fakeSystem) Lchown(path string, uid, gid int) error {
	if f.chownErr != nil {
		return f.chownErr
	}
	f.chowns = append(f.chowns, chownCall{Path: path, UID: uid, GID: gid})
	return nil
}

func (f *fakeSystem) GrantBindCapability(path string) error {
	if f.capErr != nil {
		return f.capErr
	}
	f.granted = append(f.granted, path)
	return nil
}

func (f *fakeSystem) ClearCapabilities(path string) error {
	if f.capErr != nil {
		return f.capErr
	}
	f.cleared = append(f.cleared, path)
	return nil
}

func (f *fakeSystem) Exec(binary string, argv []string, env []string, cred *Credential) error {
	if f.execErr != nil {
		return f.execErr
	}
	f.execs = append(f.execs, execCall{Binary: binary, Argv: argv, Env: env, Cred: cred})
	return nil
}

func (f *fakeSystem) chownedPaths() []string {
	var paths []string
	for _, c := range f.chowns {
		paths = append(paths, c.Path)
	}
	return paths
}

// ownership returns the last owner set on every chowned path.
func (f *fakeSystem) ownership() map[string]chownCall {
	owners := make(map[string]chownCall, len(f.chowns))
	for _, c := range f.chowns {
		owners[c.Path] = c
	}
	return owners
}

type fakeFetcher struct {
	content  string
	err      error
	requests []ObjectLocation
	deadline bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, location ObjectLocation) ([]byte, error) {
	f.requests = append(f.requests, location)
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.content), nil
}

// fakeResolver maps interface names to addresses; unknown names fail.
type fakeResolver map[string]string

func (f fakeResolver) IPv4(name string) (string, error) {
	addr, ok := f[name]
	if !ok {
		return "", fmt.Errorf("interface %q has no IPv4 address", name)
	}
	return addr, nil
}

// testLayout creates a Consul install layout under a temporary directory,
// with an empty binary in place.
func testLayout(t *testing.T) Layout {
	t.Helper()

	root := t.TempDir()
	layout := Layout{
		Binary:    filepath.Join(root, "bin", "consul"),
		DataDir:   filepath.Join(root, "data"),
		ConfigDir: filepath.Join(root, "config"),
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(layout.Binary), 0755))
	require.NoError(t, os.WriteFile(layout.Binary, []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.MkdirAll(layout.DataDir, 0755))
	require.NoError(t, os.MkdirAll(layout.ConfigDir, 0755))

	return layout
}

// envFileContent renders variables the way operators upload them: one
// indented KEY="VALUE" per line.
func envFileContent(lines ...string) string {
	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "\n"
		}
		out += " " + line
	}
	return out
}
