// Package resolver turns a user-supplied reference path into an ordered,
// cycle-free list of SQL file paths. An explicit-only directory (a .pgspa
// policy file with explicit=true) may still be used when it is the
// reference the caller passed in directly; the restriction only bites when
// such a directory is reached transitively, through an include list or a
// parent directory's listing.
package resolver

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitigr/pgspa/internal/config"
	"github.com/dmitigr/pgspa/pkg/pgspa"
)

// Resolve returns the ordered list of SQL file paths named by ref.
func Resolve(ref string) ([]string, error) {
	return resolve(ref, []string{ref}, true)
}

func resolve(ref string, trail []string, topLevel bool) ([]string, error) {
	if err := checkLeafName(ref); err != nil {
		return nil, err
	}

	info, statErr := os.Stat(ref)

	switch {
	case statErr == nil && info.Mode().IsRegular() && filepath.Ext(ref) == ".sql":
		return []string{ref}, nil

	case statErr == nil && info.Mode().IsRegular() && filepath.Ext(ref) == "":
		return resolveIncludeList(ref, trail)

	case statErr == nil && info.IsDir():
		return resolveDirectory(ref, trail, topLevel)

	default:
		sibling := replaceExt(ref, ".sql")
		if siblingInfo, err := os.Stat(sibling); err == nil && siblingInfo.Mode().IsRegular() {
			return []string{sibling}, nil
		}
		return nil, fmt.Errorf("%w: invalid reference %q", pgspa.ErrResolution, ref)
	}
}

func checkLeafName(ref string) error {
	name := filepath.Base(ref)
	if name == "" || name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: reference name cannot be empty or start with \".\": %q", pgspa.ErrResolution, ref)
	}
	return nil
}

func resolveIncludeList(ref string, trail []string) ([]string, error) {
	lines, err := readNonCommentLines(ref)
	if err != nil {
		return nil, err
	}
	parent := filepath.Dir(ref)

	var result []string
	for _, line := range lines {
		fullPath := filepath.Join(parent, line)
		if inTrail(trail, fullPath) {
			return nil, fmt.Errorf("%w: reference cyclicity detected: %q", pgspa.ErrResolution, describeCycle(trail, fullPath))
		}
		trailCopy := append(append([]string{}, trail...), fullPath)
		paths, err := resolve(fullPath, trailCopy, false)
		if err != nil {
			return nil, err
		}
		result = append(result, paths...)
	}
	return result, nil
}

func resolveDirectory(ref string, trail []string, topLevel bool) ([]string, error) {
	configPath := filepath.Join(ref, pgspa.PolicyFileName)
	if configInfo, err := os.Stat(configPath); err == nil && configInfo.Mode().IsRegular() {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", pgspa.ErrIoError, configPath, err)
		}
		pol, err := config.ParsePolicy(content)
		if err != nil {
			return nil, err
		}
		if pol.Explicit && !topLevel {
			return nil, fmt.Errorf("%w: the references of the directory %q are allowed to be used only explicitly", pgspa.ErrResolution, ref)
		}
	}

	var result []string

	heading := replaceExt(ref, ".sql")
	if headingInfo, err := os.Stat(heading); err == nil && headingInfo.Mode().IsRegular() {
		result = append(result, heading)
	}

	names, err := directoryEntryNames(ref)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	for _, name := range names {
		candidateSQL := filepath.Join(ref, name+".sql")
		if candidateInfo, err := os.Stat(candidateSQL); err == nil && candidateInfo.Mode().IsRegular() {
			result = append(result, candidateSQL)
		}
		candidateDir := filepath.Join(ref, name)
		if dirInfo, err := os.Stat(candidateDir); err == nil && dirInfo.IsDir() {
			paths, err := resolve(candidateDir, trail, false)
			if err != nil {
				return nil, err
			}
			result = append(result, paths...)
		}
	}
	return result, nil
}

// directoryEntryNames returns the set of projected names of ref's immediate
// entries: a *.sql file "foo.sql" projects to "foo", a subdirectory "bar"
// projects to "bar". Both projections of the same name are folded together
// so a later pass can look for either or both.
func directoryEntryNames(ref string) ([]string, error) {
	entries, err := os.ReadDir(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pgspa.ErrIoError, ref, err)
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		switch {
		case e.Type().IsRegular() && filepath.Ext(e.Name()) == ".sql":
			seen[strings.TrimSuffix(e.Name(), ".sql")] = struct{}{}
		case e.IsDir():
			seen[e.Name()] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names, nil
}

func readNonCommentLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pgspa.ErrIoError, path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		// Deliberately checks the raw line, not a trimmed one: an include-list
		// line is a comment only when '#' is its literal first byte, unlike
		// policy.go's parseKeyValues which trims leading space first.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pgspa.ErrIoError, path, err)
	}
	return lines, nil
}

func inTrail(trail []string, path string) bool {
	for _, t := range trail {
		if t == path {
			return true
		}
	}
	return false
}

func describeCycle(trail []string, closing string) string {
	var b strings.Builder
	for _, r := range trail {
		b.WriteString(r)
		b.WriteString(" -> ")
	}
	b.WriteString(closing)
	return b.String()
}

func replaceExt(path, ext string) string {
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	return trimmed + ext
}
