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

/*
Package baseline drops diagnostics that an earlier run already reported.

A baseline is the JSON results file of an earlier run. A diagnostic is known
when the baseline holds one with the same tag, code and text in the same
file, and its line maps onto the baseline line through the hunks of the patch
between the two revisions. Without a patch the lines must be equal.
*/
package baseline

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/basic"
	"naive.systems/bdeverify/cruleslib/diag"
	"naive.systems/bdeverify/cruleslib/results"
	"naive.systems/bdeverify/diff"
)

type key struct {
	tag, code, text string
}

type Baseline struct {
	// known maps a slash-separated path to the diagnostics reported in it
	known map[string]map[key][]int
}

func New(old []*diag.Diagnostic) *Baseline {
	b := &Baseline{known: make(map[string]map[key][]int)}
	for _, d := range old {
		if !d.Where.IsValid() {
			continue
		}
		path := filepath.ToSlash(filepath.Clean(d.Where.File))
		m := b.known[path]
		if m == nil {
			m = make(map[key][]int)
			b.known[path] = m
		}
		k := key{tag: d.Tag, code: d.Code, text: d.Text()}
		m[k] = append(m[k], int(d.Where.Line))
	}
	return b
}

func Load(baselinePath string) (*Baseline, error) {
	old, err := results.ReadJSON(baselinePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read baseline %s: %v", baselinePath, err)
	}
	return New(old), nil
}

func (b *Baseline) Len() int {
	n := 0
	for _, m := range b.known {
		for _, lines := range m {
			n += len(lines)
		}
	}
	return n
}

// Known reports whether d was already reported. patch may be nil.
func (b *Baseline) Known(d *diag.Diagnostic, patch *diff.Patch) bool {
	if !d.Where.IsValid() {
		return false
	}
	m := b.known[filepath.ToSlash(filepath.Clean(d.Where.File))]
	lines := m[key{tag: d.Tag, code: d.Code, text: d.Text()}]
	if len(lines) == 0 {
		return false
	}
	var hunks []*diff.Hunk
	if patch != nil {
		hunks = patch.FileHunks(d.Where.File)
	}
	for _, oldline := range lines {
		if CompareIssuesThroughHunks(int(d.Where.Line), oldline, hunks) {
			return true
		}
	}
	return false
}

// RemoveKnown drops the diagnostics of set that b already holds and returns
// how many were dropped. Diagnostics reported regardless of suppression are
// kept.
func (b *Baseline) RemoveKnown(set *results.ResultsSet, patch *diff.Patch) int {
	before := set.Len()
	set.Filter(func(d *diag.Diagnostic) bool {
		return d.Always || !b.Known(d, patch)
	})
	return before - set.Len()
}

func inHunk(linenumber, start, lines int) bool {
	if linenumber >= start && linenumber < start+lines {
		return true
	}
	return false
}

func aboveHunk(linenumber, start, lines int) bool {
	if lines == 0 {
		return linenumber <= start
	}
	return linenumber < start
}

func underHunk(linenumber, start, lines int) bool {
	if lines == 0 {
		return linenumber > start
	}
	return linenumber >= start+lines
}

// CompareIssuesThroughHunks reports whether newline of the new revision is
// the same source line as oldline of the old one, given the sorted hunks of
// the file between the two revisions.
func CompareIssuesThroughHunks(newline, oldline int, hunks []*diff.Hunk) bool {
	newPrev := 0 // the start line of previous same block
	oldPrev := 0 // the start line of previous same block
	for _, hunk := range hunks {
		if inHunk(newline, hunk.NewPos, hunk.NewLines) {
			old := contextOldLine(newline, hunk)
			return old != 0 && old == oldline
		} else if aboveHunk(newline, hunk.NewPos, hunk.NewLines) {
			if aboveHunk(oldline, hunk.OldPos, hunk.OldLines) && newline-newPrev == oldline-oldPrev {
				return true
			}
			return false
		} else if !underHunk(oldline, hunk.OldPos, hunk.OldLines) {
			return false
		}
		newPrev = hunk.NewPos + hunk.NewLines
		if hunk.NewLines > 0 {
			newPrev -= 1
		}
		oldPrev = hunk.OldPos + hunk.OldLines
		if hunk.OldLines > 0 {
			oldPrev -= 1
		}
	}
	return newline-newPrev == oldline-oldPrev
}

// contextOldLine maps a context line of hunk to its old line number. It
// returns 0 for an added line, and for any line of a hunk that removes lines
// since their positions are not recorded.
func contextOldLine(newline int, hunk *diff.Hunk) int {
	added := 0
	for _, l := range hunk.Added {
		if l == newline {
			return 0
		}
		if l < newline {
			added++
		}
	}
	if hunk.OldLines > hunk.NewLines-len(hunk.Added) {
		return 0
	}
	return hunk.OldPos + (newline - hunk.NewPos) - added
}

// GetHeadCommitHash returns the revision checked out in workingDir.
func GetHeadCommitHash(workingDir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = workingDir
	out, err := basic.CombinedOutput(cmd, "git rev-parse", 10*time.Second)
	strOut := string(out)
	if err != nil {
		glog.Warningf("git rev-parse in %s: %v", workingDir, err)
		return "", fmt.Errorf("%s: %v", strings.TrimSpace(strOut), err)
	}
	return strings.TrimSuffix(strOut, "\n"), nil
}
