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

// Package rewrite collects text edits proposed by checks and applies them to
// copies of the source buffers. The buffers themselves are never modified,
// so checks reading source text see the original throughout a run.
package rewrite

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/pmezard/go-difflib/difflib"

	"naive.systems/bdeverify/atomic"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/source"
)

var (
	ErrOverlap    = errors.New("rewrite: edit overlaps an earlier edit")
	ErrOutOfRange = errors.New("rewrite: range is outside the source")
)

type edit struct {
	start, end int
	text       string
	seq        int
}

type Rewriter struct {
	sources *source.Manager
	edits   map[string][]edit
	seq     int
}

func New(sources *source.Manager) *Rewriter {
	return &Rewriter{sources: sources, edits: make(map[string][]edit)}
}

// Replace replaces the text of r. Replacing the same range with the same
// text twice is not an error.
func (rw *Rewriter) Replace(r location.Range, text string) error {
	f, start, end, err := rw.sources.Span(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	if start > end || end > len(f.Content) {
		return fmt.Errorf("%w: %v", ErrOutOfRange, r)
	}
	e := edit{start: start, end: end, text: text}
	for _, o := range rw.edits[f.Name] {
		if o.start == e.start && o.end == e.end && o.text == e.text {
			return nil
		}
		if conflicts(o, e) {
			return fmt.Errorf("%w: %v", ErrOverlap, r)
		}
	}
	rw.seq++
	e.seq = rw.seq
	rw.edits[f.Name] = append(rw.edits[f.Name], e)
	glog.V(2).Infof("rewrite: %v -> %q", r, text)
	return nil
}

// conflicts reports whether two edits touch the same text. Insertions at
// the same point do not conflict; they are applied in the order made.
func conflicts(a, b edit) bool {
	switch {
	case a.start == a.end && b.start == b.end:
		return false
	case a.start == a.end:
		return b.start < a.start && a.start < b.end
	case b.start == b.end:
		return a.start < b.start && b.start < a.end
	}
	return a.start < b.end && b.start < a.end
}

func (rw *Rewriter) Insert(at location.Location, text string) error {
	return rw.Replace(location.Point(at), text)
}

func (rw *Rewriter) Remove(r location.Range) error {
	return rw.Replace(r, "")
}

// Files returns the names of files with edits, sorted.
func (rw *Rewriter) Files() []string {
	var names []string
	for n, es := range rw.edits {
		if len(es) > 0 {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of recorded edits.
func (rw *Rewriter) Len() int {
	n := 0
	for _, es := range rw.edits {
		n += len(es)
	}
	return n
}

// Contents returns file with all its edits applied.
func (rw *Rewriter) Contents(file string) ([]byte, error) {
	f, ok := rw.sources.Get(file)
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrNoFile, file)
	}
	es := append([]edit(nil), rw.edits[file]...)
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].start != es[j].start {
			return es[i].start < es[j].start
		}
		return es[i].seq < es[j].seq
	})
	var out []byte
	pos := 0
	for _, e := range es {
		out = append(out, f.Content[pos:e.start]...)
		out = append(out, e.text...)
		pos = e.end
	}
	out = append(out, f.Content[pos:]...)
	return out, nil
}

// UnifiedDiff returns the edits of file as a unified diff.
func (rw *Rewriter) UnifiedDiff(file string) (string, error) {
	f, ok := rw.sources.Get(file)
	if !ok {
		return "", fmt.Errorf("%w: %s", source.ErrNoFile, file)
	}
	after, err := rw.Contents(file)
	if err != nil {
		return "", err
	}
	name := strings.TrimPrefix(filepath.ToSlash(file), "/")
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(f.Content)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
}

// WriteAll writes every edited file below dir, keeping its path.
func (rw *Rewriter) WriteAll(dir string) ([]string, error) {
	var written []string
	for _, file := range rw.Files() {
		content, err := rw.Contents(file)
		if err != nil {
			return written, err
		}
		out := filepath.Join(dir, strings.TrimPrefix(filepath.Clean(file), string(filepath.Separator)))
		if err := atomic.Write(out, content); err != nil {
			return written, err
		}
		written = append(written, out)
	}
	return written, nil
}
