package entrypoint

import (
	"regexp"
	"strings"
)

var envLineRegex = regexp.MustCompile(`^(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

// ParseEnvFile parses newline separated KEY="VALUE" assignments. Leading
// whitespace is ignored. Lines that are not a well formed assignment are
// dropped silently so that a hand edited file never aborts the container.
//
// Double quoted values follow shell rules: a backslash escapes ", \, $ and `.
// Single quoted values are literal. Bare values must not contain whitespace.
// When a key appears more than once, the last assignment wins.
func ParseEnvFile(data []byte) map[string]string {
	out := map[string]string{}

	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		match := envLineRegex.FindStringSubmatch(line)
		if match == nil {
			zlog.Debug("skipping malformed env file line")
			continue
		}

		value, ok := unquoteEnvValue(match[2])
		if !ok {
			zlog.Debug("skipping env file line with malformed value")
			continue
		}

		out[match[1]] = value
	}

	return out
}

func unquoteEnvValue(raw string) (string, bool) {
	if raw == "" {
		return "", true
	}

	switch raw[0] {
	case '"':
		return unquoteDouble(raw)
	case '\'':
		if len(raw) < 2 || raw[len(raw)-1] != '\'' || strings.Contains(raw[1:len(raw)-1], "'") {
			return "", false
		}
		return raw[1 : len(raw)-1], true
	default:
		if strings.ContainsAny(raw, " \t\"'") {
			return "", false
		}
		return raw, true
	}
}

// unquoteDouble requires raw to be exactly one double quoted string.
func unquoteDouble(raw string) (string, bool) {
	var sb strings.Builder

	for i := 1; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw):
			next := raw[i+1]
			switch next {
			case '"', '\\', '$', '`':
				sb.WriteByte(next)
				i++
			default:
				sb.WriteByte(c)
			}
		case c == '"':
			if i != len(raw)-1 {
				return "", false
			}
			return sb.String(), true
		default:
			sb.WriteByte(c)
		}
	}

	// Unterminated
	return "", false
}
