// Package config implements pgspa's project-root discovery and per-directory
// policy file parsing: a flat key=value format with an escape rule for
// single-quoted values.
package config

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitigr/pgspa/pkg/pgspa"
)

// Policy is the parsed content of a per-directory .pgspa file. Only one key
// is currently recognized: explicit.
type Policy struct {
	// Explicit forbids the directory it governs from being visited except
	// as the user's own top-level reference argument.
	Explicit bool
}

// ParsePolicy parses the flat key=value content of a .pgspa file.
//
// Format rules:
//   - blank lines and lines whose first non-space character is '#' are
//     ignored
//   - each remaining line is key=value
//   - a value may be a bare token or wrapped in single quotes; inside a
//     quoted value, \' is a literal single quote and does not end the value
//   - any key other than "explicit" is a fatal error, wrapped in
//     pgspa.ErrInvalidConfig
func ParsePolicy(content []byte) (Policy, error) {
	values, err := parseKeyValues(content)
	if err != nil {
		return Policy{}, err
	}

	var pol Policy
	for key, raw := range values {
		switch key {
		case "explicit":
			b, err := parseBool(raw)
			if err != nil {
				return Policy{}, fmt.Errorf("%w: key %q: %v", pgspa.ErrInvalidConfig, key, err)
			}
			pol.Explicit = b
		default:
			return Policy{}, fmt.Errorf("%w: unrecognized key %q", pgspa.ErrInvalidConfig, key)
		}
	}
	return pol, nil
}

func parseKeyValues(content []byte) (map[string]string, error) {
	result := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eqIndex := strings.Index(line, "=")
		if eqIndex == -1 {
			return nil, fmt.Errorf("%w: line %d: expected key=value", pgspa.ErrInvalidConfig, lineNum)
		}

		key := strings.TrimSpace(line[:eqIndex])
		rawValue := strings.TrimSpace(line[eqIndex+1:])
		if key == "" {
			return nil, fmt.Errorf("%w: line %d: empty key", pgspa.ErrInvalidConfig, lineNum)
		}

		value, err := unquote(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", pgspa.ErrInvalidConfig, lineNum, err)
		}
		result[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", pgspa.ErrInvalidConfig, err)
	}
	return result, nil
}

// unquote strips a single pair of surrounding single quotes from value,
// unescaping \' to a literal quote along the way. Values that are not
// quoted are returned unchanged.
func unquote(value string) (string, error) {
	if !strings.HasPrefix(value, "'") {
		return value, nil
	}

	var b strings.Builder
	i := 1
	closed := false
	for i < len(value) {
		switch {
		case value[i] == '\\' && i+1 < len(value) && value[i+1] == '\'':
			b.WriteByte('\'')
			i += 2
		case value[i] == '\'':
			closed = true
			i++
		default:
			b.WriteByte(value[i])
			i++
		}
		if closed {
			break
		}
	}
	if !closed {
		return "", fmt.Errorf("unterminated quoted value: %s", value)
	}
	if i != len(value) {
		return "", fmt.Errorf("trailing characters after quoted value: %s", value)
	}
	return b.String(), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "y", "yes", "t", "true", "1":
		return true, nil
	case "n", "no", "f", "false", "0":
		return false, nil
	}
	// fall back to strconv for anything Go itself already understands
	return strconv.ParseBool(s)
}
