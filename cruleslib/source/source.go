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

// Package source keeps the text of every file a translation unit touches and
// converts between byte offsets and 1-based line/column positions.
package source

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"fortio.org/safecast"
	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/location"
)

var ErrNoFile = errors.New("source: file not loaded")

// File is one source buffer. Content is never modified once the File is
// created.
type File struct {
	Name       string
	Content    []byte
	lineStarts []int
}

func newFile(name string, content []byte) *File {
	f := &File{Name: name, Content: content, lineStarts: []int{0}}
	for i, b := range content {
		if b == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
	return f
}

// LineCount returns the number of lines. A trailing newline does not start
// a new line.
func (f *File) LineCount() int {
	n := len(f.lineStarts)
	if n > 1 && f.lineStarts[n-1] == len(f.Content) {
		n--
	}
	return n
}

// Offset converts a 1-based line and column into a byte offset.
func (f *File) Offset(line, column uint) (int, error) {
	l, err := safecast.Conv[int](line)
	if err != nil {
		return -1, err
	}
	c, err := safecast.Conv[int](column)
	if err != nil {
		return -1, err
	}
	if l < 1 || l > len(f.lineStarts) || c < 1 {
		return -1, fmt.Errorf("source: %s:%d:%d out of range", f.Name, line, column)
	}
	off := f.lineStarts[l-1] + c - 1
	if off > len(f.Content) {
		return -1, fmt.Errorf("source: %s:%d:%d out of range", f.Name, line, column)
	}
	return off, nil
}

// Position converts a byte offset into a location within f.
func (f *File) Position(offset int) location.Location {
	if offset < 0 || offset > len(f.Content) {
		return location.Invalid
	}
	i := sort.Search(len(f.lineStarts), func(i int) bool { return f.lineStarts[i] > offset }) - 1
	line, err1 := safecast.Conv[uint](i + 1)
	col, err2 := safecast.Conv[uint](offset - f.lineStarts[i] + 1)
	if err1 != nil || err2 != nil {
		return location.Invalid
	}
	return location.Location{File: f.Name, Line: line, Column: col, Offset: offset}
}

// Line returns the text of the given 1-based line without its newline.
func (f *File) Line(line uint) string {
	start, err := f.Offset(line, 1)
	if err != nil {
		return ""
	}
	end := len(f.Content)
	if i := strings.IndexByte(string(f.Content[start:]), '\n'); i >= 0 {
		end = start + i
	}
	return strings.TrimSuffix(string(f.Content[start:end]), "\r")
}

// Manager caches files by name. It is safe for concurrent use so that one
// Manager can back several translation units.
type Manager struct {
	mu    sync.Mutex
	files map[string]*File
}

func NewManager() *Manager {
	return &Manager{files: make(map[string]*File)}
}

// Add registers an in-memory buffer, replacing any earlier one of the same
// name.
func (m *Manager) Add(name string, content []byte) *File {
	f := newFile(name, content)
	m.mu.Lock()
	m.files[name] = f
	m.mu.Unlock()
	return f
}

// Load returns the named file, reading it from disk on first use.
func (m *Manager) Load(name string) (*File, error) {
	m.mu.Lock()
	f, ok := m.files[name]
	m.mu.Unlock()
	if ok {
		return f, nil
	}
	content, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %v", name, err)
	}
	glog.V(2).Infof("source: loaded %s (%d bytes)", name, len(content))
	return m.Add(name, content), nil
}

// Get returns a file that was already added or loaded.
func (m *Manager) Get(name string) (*File, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[name]
	return f, ok
}

func (m *Manager) file(name string) (*File, error) {
	if f, ok := m.Get(name); ok {
		return f, nil
	}
	return m.Load(name)
}

// Resolve fills in loc.Offset when the host left it unknown.
func (m *Manager) Resolve(loc location.Location) (location.Location, error) {
	if loc.Offset >= 0 {
		return loc, nil
	}
	f, err := m.file(loc.File)
	if err != nil {
		return loc, err
	}
	off, err := f.Offset(loc.Line, loc.Column)
	if err != nil {
		return loc, err
	}
	loc.Offset = off
	return loc, nil
}

// Span returns the byte offsets [start, end) of r.
func (m *Manager) Span(r location.Range) (*File, int, int, error) {
	if !r.Valid() {
		return nil, 0, 0, fmt.Errorf("source: invalid range %v", r)
	}
	from, err := m.Resolve(r.From)
	if err != nil {
		return nil, 0, 0, err
	}
	to, err := m.Resolve(r.To)
	if err != nil {
		return nil, 0, 0, err
	}
	f, err := m.file(r.File())
	if err != nil {
		return nil, 0, 0, err
	}
	return f, from.Offset, to.Offset, nil
}

// Text returns the source text covered by r.
func (m *Manager) Text(r location.Range) (string, error) {
	f, start, end, err := m.Span(r)
	if err != nil {
		return "", err
	}
	return string(f.Content[start:end]), nil
}

// LineText returns the whole line containing loc.
func (m *Manager) LineText(loc location.Location) string {
	f, err := m.file(loc.File)
	if err != nil {
		return ""
	}
	return f.Line(loc.Line)
}
