// Package entrypoint configures and launches a Consul agent inside a container.
//
// The entrypoint runs a fixed pipeline once per container start: it loads the
// effective environment (process environment plus an optional env file stored
// in S3), adjusts ownership and capabilities of the Consul directories and
// binary, synthesises the Consul command line and finally replaces itself with
// the Consul process.
package entrypoint

import (
	"path/filepath"

	"github.com/streamingfast/logging"
)

var zlog, _ = logging.PackageLogger("entrypoint", "github.com/streamingfast/consul-entrypoint")

// ServiceAccount is the dedicated user and group Consul runs as when
// permission management is enabled.
const ServiceAccount = "consul"

// LocalConfigurationFile is the name of the file, inside the config
// directory, receiving CONSUL_LOCAL_CONFIGURATION.
const LocalConfigurationFile = "local.json"

// Layout holds the well-known filesystem locations of the Consul install.
type Layout struct {
	Binary    string `yaml:"binary" json:"binary"`
	DataDir   string `yaml:"data_dir" json:"data_dir"`
	ConfigDir string `yaml:"config_dir" json:"config_dir"`
}

// DefaultLayout is the layout of the container image.
var DefaultLayout = Layout{
	Binary:    "/opt/consul/bin/consul",
	DataDir:   "/opt/consul/data",
	ConfigDir: "/opt/consul/config",
}

// LocalConfigurationPath returns where the local configuration blob is written.
func (l Layout) LocalConfigurationPath() string {
	return filepath.Join(l.ConfigDir, LocalConfigurationFile)
}
