package entrypoint

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// InterfaceResolver finds the address of a named network interface.
type InterfaceResolver interface {
	// IPv4 returns the first IPv4 address of the interface.
	IPv4(name string) (string, error)
}

// NetInterfaceResolver inspects the host network interfaces.
type NetInterfaceResolver struct{}

func (NetInterfaceResolver) IPv4(name string) (string, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return "", fmt.Errorf("interface %q: %w", name, err)
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return "", fmt.Errorf("interface %q: list addresses: %w", name, err)
	}

	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}

	return "", fmt.Errorf("interface %q has no IPv4 address", name)
}

// NormalizeArgs applies the container conventions to the caller arguments:
// no argument starts an agent, and a leading flag means agent flags.
func NormalizeArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"agent"}
	}
	if strings.HasPrefix(args[0], "-") {
		return append([]string{"agent"}, args...)
	}
	return append([]string(nil), args...)
}

// ResolveArguments builds the Consul command line (without argv[0]). Caller
// arguments come first, unchanged. For the agent subcommand the fixed data
// directory, config directory and JSON logging flags follow, then every
// conditional flag in a fixed order. Other subcommands are passed through.
func ResolveArguments(config *Config, args []string, layout Layout, resolver InterfaceResolver) ([]string, error) {
	out := NormalizeArgs(args)
	if out[0] != "agent" {
		return out, nil
	}

	out = append(out,
		"-data-dir="+layout.DataDir,
		"-config-dir="+layout.ConfigDir,
		"-log-json",
	)

	if config.BindInterface != "" {
		addr, err := resolver.IPv4(config.BindInterface)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve bind address: %w", err)
		}
		out = append(out, "-bind="+addr)
	}

	switch {
	case config.ClientAddress != "":
		out = append(out, "-client="+config.ClientAddress)
	case config.ClientInterface != "":
		addr, err := resolver.IPv4(config.ClientInterface)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve client address: %w", err)
		}
		out = append(out, "-client="+addr)
	}

	if config.EnableUI {
		out = append(out, "-ui")
	}

	if config.EC2AutoJoinTagKey != "" && config.EC2AutoJoinTagValue != "" {
		out = append(out, "-retry-join", fmt.Sprintf("provider=aws tag_key=%s tag_value=%s", config.EC2AutoJoinTagKey, config.EC2AutoJoinTagValue))
	}

	for _, addr := range config.ServerAddresses {
		out = append(out, "-retry-join", addr)
	}

	if config.ExpectedServers != "" {
		if count, err := strconv.Atoi(config.ExpectedServers); err != nil || count <= 0 {
			return nil, fmt.Errorf("invalid %s %q: must be a positive integer", EnvExpectedServers, config.ExpectedServers)
		}
		out = append(out, "-bootstrap-expect", config.ExpectedServers)
	}

	return out, nil
}
