package entrypoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is a file that must exist with the given content before Consul starts.
type File struct {
	Path    string `yaml:"path" json:"path"`
	Content string `yaml:"content" json:"content"`
}

// Invocation is the fully resolved Consul process: what to exec, with which
// arguments, as whom, and which files to write first.
type Invocation struct {
	Binary string   `yaml:"binary" json:"binary"`
	Args   []string `yaml:"args" json:"args"`
	// User and Group are empty when Consul keeps the invoking identity.
	User                 string `yaml:"user,omitempty" json:"user,omitempty"`
	Group                string `yaml:"group,omitempty" json:"group,omitempty"`
	ManagePermissions    bool   `yaml:"manage_permissions" json:"manage_permissions"`
	AllowPrivilegedPorts bool   `yaml:"allow_privileged_ports" json:"allow_privileged_ports"`
	Files                []File `yaml:"files,omitempty" json:"files,omitempty"`

	// Env may carry credentials, it is never serialised.
	Env []string `yaml:"-" json:"-"`

	perms Permissions
}

// Argv is the argument vector handed to exec, argv[0] included.
func (i *Invocation) Argv() []string {
	return append([]string{filepath.Base(i.Binary)}, i.Args...)
}

// BuildInvocation resolves the Consul invocation from the configuration
// snapshot. It has no side effect.
func BuildInvocation(config *Config, perms Permissions, args []string, layout Layout, resolver InterfaceResolver, env *EffectiveEnvironment) (*Invocation, error) {
	resolved, err := ResolveArguments(config, args, layout, resolver)
	if err != nil {
		return nil, err
	}

	inv := &Invocation{
		Binary:               layout.Binary,
		Args:                 resolved,
		User:                 perms.Owner,
		Group:                perms.Group,
		ManagePermissions:    perms.Manage,
		AllowPrivilegedPorts: perms.Manage && perms.AllowPrivilegedPorts,
		perms:                perms,
	}

	if env != nil {
		inv.Env = env.Environ()
	}

	if config.LocalConfiguration != "" {
		if _, err := hujson.Parse([]byte(config.LocalConfiguration)); err != nil {
			zlog.Warn("local configuration is not valid JSON, writing it anyway",
				zap.String("env", EnvLocalConfiguration),
				zap.Error(err))
		}

		inv.Files = append(inv.Files, File{
			Path:    layout.LocalConfigurationPath(),
			Content: config.LocalConfiguration + "\n",
		})
	}

	return inv, nil
}

// WriteFiles writes every file of the invocation verbatim. With permission
// management enabled the files are handed to the run-as account.
func WriteFiles(sys System, inv *Invocation) error {
	if len(inv.Files) == 0 {
		return nil
	}

	cred, err := inv.perms.runAs(sys)
	if err != nil {
		return err
	}

	for _, f := range inv.Files {
		if err := os.WriteFile(f.Path, []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}

		if cred != nil {
			if err := sys.Lchown(f.Path, cred.UID, cred.GID); err != nil {
				return err
			}
		}

		zlog.Info("wrote file", zap.String("path", f.Path), zap.Int("bytes", len(f.Content)))
	}

	return nil
}

// Launch replaces the current process with Consul. On success it never
// returns.
func Launch(sys System, inv *Invocation) error {
	if _, err := os.Stat(inv.Binary); err != nil {
		return fmt.Errorf("consul binary: %w", err)
	}

	cred, err := inv.perms.runAs(sys)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("binary", inv.Binary),
		zap.Strings("argv", inv.Argv()),
	}
	if cred != nil {
		fields = append(fields, zap.String("user", inv.User), zap.Int("uid", cred.UID), zap.Int("gid", cred.GID))
	}
	zlog.Info("executing consul", fields...)

	if err := sys.Exec(inv.Binary, inv.Argv(), inv.Env, cred); err != nil {
		return fmt.Errorf("failed to exec %s: %w", inv.Binary, err)
	}
	return nil
}

// MarshalInvocation renders inv as "yaml" or "json".
func MarshalInvocation(inv *Invocation, format string) ([]byte, error) {
	switch format {
	case "yaml", "":
		return yaml.Marshal(inv)
	case "json":
		data, err := json.MarshalIndent(inv, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown output format %q, expected yaml or json", format)
	}
}
