package entrypoint

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// LoadInput builds the effective environment from local and, when an env file
// object path is configured, from the object returned by fetcher. The env file
// coordinates and credentials are only ever read from local. Any failure to
// obtain the env file is returned; the caller must not start Consul with a
// partial configuration.
func LoadInput(ctx context.Context, local Environment, fetcher Fetcher) (*EffectiveEnvironment, error) {
	location, ok, err := ResolveObjectLocation(local)
	if err != nil {
		return nil, err
	}

	if !ok {
		zlog.Info("no env file configured, using process environment only")
		return NewEffectiveEnvironment(nil, local), nil
	}

	timeout, err := FetchTimeout(local)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch env file %s: %w", location, err)
	}

	fetched := ParseEnvFile(data)
	zlog.Info("loaded env file",
		zap.Stringer("object", location),
		zap.Int("bytes", len(data)),
		zap.Int("variables", len(fetched)))

	return NewEffectiveEnvironment(fetched, local), nil
}

// LoadInputFromFile is LoadInput with the env file read from the local
// filesystem instead of object storage.
func LoadInputFromFile(path string, local Environment) (*EffectiveEnvironment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	fetched := ParseEnvFile(data)
	zlog.Info("loaded local env file", zap.String("path", path), zap.Int("variables", len(fetched)))

	return NewEffectiveEnvironment(fetched, local), nil
}
