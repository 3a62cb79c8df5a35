package manifest

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Entry is one declared dependency: a package name plus the version
// constraint exactly as written in the manifest file.
type Entry struct {
	Name       string
	Constraint string
	Line       int
}

// Pinned reports whether the entry is pinned to one exact version.
func (e Entry) Pinned() bool {
	return strings.HasPrefix(e.Constraint, "==")
}

// Manifest is the parsed dependency manifest. Entry order is preserved for
// rendering, but has no semantic meaning.
type Manifest struct {
	Path    string
	Entries []Entry
}

// Finding is a non-fatal lint result about a manifest entry.
type Finding struct {
	Line    int
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("line %d: %s", f.Line, f.Message)
}

// constraint operators understood in a requirements-style manifest, longest
// first so "==" wins over "=".
var constraintOps = []string{"==", ">=", "<=", "~=", "!=", ">", "<"}

// Parse reads a requirements-style manifest file. Comments and blank lines
// are skipped; every remaining line must be a package name optionally
// followed by a version constraint. A missing or unreadable file is fatal.
func Parse(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dependency manifest not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open dependency manifest %s: %w", path, err)
	}
	defer file.Close()

	m := &Manifest{Path: path}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		// Strip trailing comments, then whitespace
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("invalid manifest entry at %s:%d: %w", path, lineNo, err)
		}
		entry.Line = lineNo
		m.Entries = append(m.Entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dependency manifest %s: %w", path, err)
	}

	return m, nil
}

// parseLine splits one manifest line into name and constraint.
func parseLine(line string) (Entry, error) {
	for _, op := range constraintOps {
		if idx := strings.Index(line, op); idx >= 0 {
			name := strings.TrimSpace(line[:idx])
			if name == "" {
				return Entry{}, fmt.Errorf("constraint %q has no package name", line)
			}
			constraint := strings.TrimSpace(line[idx:])
			if constraint == op {
				return Entry{}, fmt.Errorf("constraint %q has no version", line)
			}
			return Entry{Name: name, Constraint: constraint}, nil
		}
	}

	if strings.ContainsAny(line, " \t") {
		return Entry{}, fmt.Errorf("unexpected whitespace in %q", line)
	}

	return Entry{Name: line}, nil
}

// Lint reports duplicate package names and entries not pinned to an exact
// version. Neither blocks a build; both undermine reproducible rebuilds.
func (m *Manifest) Lint() []Finding {
	var findings []Finding

	seen := make(map[string]bool)
	for _, entry := range m.Entries {
		key := strings.ToLower(entry.Name)
		if seen[key] {
			findings = append(findings, Finding{
				Line:    entry.Line,
				Message: fmt.Sprintf("package %q is declared more than once", entry.Name),
			})
		}
		seen[key] = true

		if !entry.Pinned() {
			findings = append(findings, Finding{
				Line:    entry.Line,
				Message: fmt.Sprintf("package %q is not pinned to an exact version (constraint %q)", entry.Name, entry.Constraint),
			})
		}
	}

	return findings
}
