package entrypoint

import (
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Environment is a read-only view over a set of environment variables. A key
// that is not present is "not configured", which is different from a key set
// to the empty string.
type Environment interface {
	Lookup(key string) (string, bool)
	// Keys returns every defined key, sorted.
	Keys() []string
}

// MapEnvironment is an Environment backed by a fixed mapping.
type MapEnvironment map[string]string

func (m MapEnvironment) Lookup(key string) (string, bool) {
	value, ok := m[key]
	return value, ok
}

func (m MapEnvironment) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// OSEnvironment reads the environment of the current process.
type OSEnvironment struct{}

func (OSEnvironment) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (OSEnvironment) Keys() []string {
	var keys []string
	for _, entry := range os.Environ() {
		key, _, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// EffectiveEnvironment is the merge of the variables fetched from the remote
// env file and the local process environment. Local values always win.
type EffectiveEnvironment struct {
	values  map[string]string
	fetched map[string]bool
}

// NewEffectiveEnvironment merges fetched (may be nil) under local.
func NewEffectiveEnvironment(fetched map[string]string, local Environment) *EffectiveEnvironment {
	e := &EffectiveEnvironment{
		values:  make(map[string]string, len(fetched)),
		fetched: make(map[string]bool, len(fetched)),
	}

	for key, value := range fetched {
		e.values[key] = value
		e.fetched[key] = true
	}

	for _, key := range local.Keys() {
		value, ok := local.Lookup(key)
		if !ok {
			continue
		}
		if e.fetched[key] {
			zlog.Debug("local environment overrides env file value", zap.String("key", key))
			delete(e.fetched, key)
		}
		e.values[key] = value
	}

	return e
}

func (e *EffectiveEnvironment) Lookup(key string) (string, bool) {
	value, ok := e.values[key]
	return value, ok
}

func (e *EffectiveEnvironment) Keys() []string {
	return MapEnvironment(e.values).Keys()
}

// FromEnvFile reports whether the effective value of key came from the
// remote env file.
func (e *EffectiveEnvironment) FromEnvFile(key string) bool {
	return e.fetched[key]
}

// Environ returns the merged environment as sorted KEY=VALUE entries, the
// form handed to the exec'd process.
func (e *EffectiveEnvironment) Environ() []string {
	keys := e.Keys()
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, key+"="+e.values[key])
	}
	return out
}

// secretKeys are never written to logs.
var secretKeys = map[string]bool{
	EnvAWSSecretAccessKey: true,
	EnvAWSSessionToken:    true,
}

// logEnvironment logs the variables the entrypoint cares about, with their
// origin. Secrets are redacted.
func logEnvironment(env *EffectiveEnvironment) {
	for _, key := range env.Keys() {
		if !strings.HasPrefix(key, "CONSUL_") && !strings.HasPrefix(key, "AWS_") && !strings.HasPrefix(key, "ENTRYPOINT_") {
			continue
		}

		value, _ := env.Lookup(key)
		if secretKeys[key] {
			value = "<redacted>"
		}

		source := "process"
		if env.FromEnvFile(key) {
			source = "env_file"
		}

		zlog.Debug("effective environment",
			zap.String("key", key),
			zap.String("value", value),
			zap.String("source", source))
	}
}
