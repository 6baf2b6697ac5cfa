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

// Package location holds the value types used to address source text: a
// resolved point in a file and a character range between two such points.
package location

import (
	"fmt"
	"strings"
)

// Location is a resolved spelling position. Line and Column are 1-based; a
// zero Line means the location is invalid. Offset is the absolute byte offset
// in File, or -1 when the host did not provide one. Offset does not take part
// in equality or ordering.
type Location struct {
	File   string
	Line   uint
	Column uint
	Offset int
}

// Invalid is the zero-line location used when nothing better is known.
var Invalid = Location{Offset: -1}

func New(file string, line, column uint) Location {
	return Location{File: file, Line: line, Column: column, Offset: -1}
}

func (l Location) IsValid() bool {
	return l.File != "" && l.Line > 0
}

// Equal reports whether file, line and column match.
func (l Location) Equal(o Location) bool {
	return l.File == o.File && l.Line == o.Line && l.Column == o.Column
}

// Compare orders locations by (file, line, column). Locations in different
// files compare by file name, which is only meaningful as a stable order.
func Compare(a, b Location) int {
	if c := strings.Compare(a.File, b.File); c != 0 {
		return c
	}
	switch {
	case a.Line < b.Line:
		return -1
	case a.Line > b.Line:
		return 1
	case a.Column < b.Column:
		return -1
	case a.Column > b.Column:
		return 1
	}
	return 0
}

func (l Location) Less(o Location) bool {
	return Compare(l, o) < 0
}

// Before reports whether l precedes o in the same file.
func (l Location) Before(o Location) bool {
	return l.File == o.File && Compare(l, o) < 0
}

// Key returns l with Offset cleared so it can be used as a map key.
func (l Location) Key() Location {
	l.Offset = -1
	return l
}

func (l Location) String() string {
	if !l.IsValid() {
		return "<invalid loc>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Range is a character range [From, To) within one file.
type Range struct {
	From Location
	To   Location
}

func NewRange(from, to Location) Range {
	return Range{From: from, To: to}
}

// Point returns the empty range at l.
func Point(l Location) Range {
	return Range{From: l, To: l}
}

func (r Range) Valid() bool {
	return r.From.IsValid() && r.To.IsValid() && r.From.File == r.To.File && Compare(r.From, r.To) <= 0
}

func (r Range) File() string {
	return r.From.File
}

func (r Range) Empty() bool {
	return r.From.Equal(r.To)
}

// Contains reports whether l lies within r. The end of r is exclusive.
func (r Range) Contains(l Location) bool {
	if !r.Valid() || l.File != r.From.File {
		return false
	}
	return Compare(r.From, l) <= 0 && Compare(l, r.To) < 0
}

// Overlaps reports whether r and o share at least one character.
func (r Range) Overlaps(o Range) bool {
	if r.File() != o.File() {
		return false
	}
	return Compare(r.From, o.To) < 0 && Compare(o.From, r.To) < 0
}

func (r Range) String() string {
	if r.From.File == r.To.File {
		return fmt.Sprintf("%s:%d:%d-%d:%d", r.From.File, r.From.Line, r.From.Column, r.To.Line, r.To.Column)
	}
	return r.From.String() + "-" + r.To.String()
}
