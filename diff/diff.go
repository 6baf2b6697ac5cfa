/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package diff

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

type Hunk struct {
	OldPos, OldLines, NewPos, NewLines int
	// Added holds the new-file line numbers of the "+" lines of the hunk.
	Added []int
}

type File struct {
	NewName string
	OldName string
	Hunks   []*Hunk
}

type Patch struct {
	Files []*File
}

var hunkRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

/*
Parse parses a unified diff into a patch.

Header lines ("--- ", "+++ ") start a file and hunk headers ("@@ -") start a
hunk. Inside a hunk the old and new line counts are tracked, so a removed
line that happens to begin with "-- " is not mistaken for a header. Lines
starting with "diff", "index" and similar are ignored.

Names may carry the "a/" and "b/" prefixes git uses, and a tab-separated
timestamp as written by diff -u; both are stripped. /dev/null stands for a
missing side: OldName is empty for an added file and NewName for a deleted
one.
*/
func Parse(diff string) (*Patch, error) {
	lines := strings.Split(diff, "\n")
	var p Patch
	var f *File
	var h *Hunk
	oldLeft, newLeft, newLine := 0, 0, 0
	for i, line := range lines {
		if h != nil && (oldLeft > 0 || newLeft > 0) {
			switch {
			case strings.HasPrefix(line, "+"):
				h.Added = append(h.Added, newLine)
				newLine++
				newLeft--
			case strings.HasPrefix(line, "-"):
				oldLeft--
			case strings.HasPrefix(line, " ") || line == "":
				newLine++
				oldLeft--
				newLeft--
			case strings.HasPrefix(line, `\`):
				// "\ No newline at end of file"
			default:
				return nil, fmt.Errorf("invalid line %d '%s' inside hunk", i, line)
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "--- "):
			f = &File{OldName: fileName(strings.TrimPrefix(line, "--- "), "a/")}
			h = nil
			p.Files = append(p.Files, f)
		case strings.HasPrefix(line, "+++ "):
			if f == nil || len(f.Hunks) > 0 {
				return nil, fmt.Errorf("unexpected line %d '%s'", i, line)
			}
			f.NewName = fileName(strings.TrimPrefix(line, "+++ "), "b/")
		case strings.HasPrefix(line, "@@ -"):
			if f == nil {
				return nil, fmt.Errorf("hunk without file header at line %d '%s'", i, line)
			}
			var err error
			h, err = parseHunk(line)
			if err != nil {
				return nil, err
			}
			f.Hunks = append(f.Hunks, h)
			oldLeft, newLeft, newLine = h.OldLines, h.NewLines, h.NewPos
		}
	}
	return &p, nil
}

func fileName(s, prefix string) string {
	if i := strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(s, prefix)
}

func parseHunk(line string) (*Hunk, error) {
	match := hunkRE.FindStringSubmatch(line)
	if match == nil {
		return nil, fmt.Errorf("could not extract hunk info from line '%s'", line)
	}
	num := func(s string, def int) (int, error) {
		if s == "" {
			return def, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("error converting %q to integer in '%s': %v", s, line, err)
		}
		return n, nil
	}
	var h Hunk
	var err error
	if h.OldPos, err = num(match[1], 0); err != nil {
		return nil, err
	}
	if h.OldLines, err = num(match[2], 1); err != nil {
		return nil, err
	}
	if h.NewPos, err = num(match[3], 0); err != nil {
		return nil, err
	}
	if h.NewLines, err = num(match[4], 1); err != nil {
		return nil, err
	}
	return &h, nil
}

// Index answers whether a line was added by a patch.
type Index struct {
	added map[string]map[int]bool
}

// NewIndex indexes the added lines of every surviving file in p.
func NewIndex(p *Patch) *Index {
	idx := &Index{added: make(map[string]map[int]bool)}
	for _, f := range p.Files {
		if f.NewName == "" {
			continue
		}
		name := filepath.ToSlash(filepath.Clean(f.NewName))
		lines := idx.added[name]
		if lines == nil {
			lines = make(map[int]bool)
			idx.added[name] = lines
		}
		for _, h := range f.Hunks {
			for _, l := range h.Added {
				lines[l] = true
			}
		}
	}
	return idx
}

// Files returns the number of files in the index.
func (idx *Index) Files() int {
	return len(idx.added)
}

// Added reports whether line of file was added. Patch names are relative to
// the repository root, so file matches a name if it equals it or ends with
// "/" followed by it.
func (idx *Index) Added(file string, line int) bool {
	file = filepath.ToSlash(filepath.Clean(file))
	if lines, ok := idx.added[file]; ok {
		return lines[line]
	}
	for name, lines := range idx.added {
		if strings.HasSuffix(file, "/"+name) {
			return lines[line]
		}
	}
	return false
}

// Touched reports whether file appears in the index at all.
func (idx *Index) Touched(file string) bool {
	file = filepath.ToSlash(filepath.Clean(file))
	if _, ok := idx.added[file]; ok {
		return true
	}
	for name := range idx.added {
		if strings.HasSuffix(file, "/"+name) {
			return true
		}
	}
	return false
}

// FileHunks returns the hunks of the surviving file matching file the way
// Index.Added matches names, or nil when the patch leaves file untouched.
func (p *Patch) FileHunks(file string) []*Hunk {
	file = filepath.ToSlash(filepath.Clean(file))
	for _, f := range p.Files {
		if f.NewName == "" {
			continue
		}
		name := filepath.ToSlash(filepath.Clean(f.NewName))
		if file == name || strings.HasSuffix(file, "/"+name) {
			return f.Hunks
		}
	}
	return nil
}
