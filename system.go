package entrypoint

// Credential is the numeric identity Consul is launched with.
type Credential struct {
	UID int
	GID int
}

// System groups the OS primitives the entrypoint needs. The production
// implementation is OSSystem; tests substitute a recording fake.
type System interface {
	// LookupAccount resolves user and group names to numeric ids.
	LookupAccount(user, group string) (Credential, error)
	// Lchown changes ownership of path without following symlinks.
	Lchown(path string, uid, gid int) error
	// GrantBindCapability sets cap_net_bind_service+ep on the file.
	GrantBindCapability(path string) error
	// ClearCapabilities removes every file capability, succeeding when there
	// was none.
	ClearCapabilities(path string) error
	// Exec replaces the current process. When cred is nil the identity of the
	// current process is kept. Exec only returns on failure.
	Exec(binary string, argv []string, env []string, cred *Credential) error
}
