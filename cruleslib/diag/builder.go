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

package diag

import "naive.systems/bdeverify/cruleslib/location"

// Builder adds arguments, ranges, fixes and notes to a diagnostic that has
// been accepted for reporting. A Builder for a suppressed diagnostic is
// inert: every method is a no-op.
type Builder struct {
	d *Diagnostic
}

func NewBuilder(d *Diagnostic) *Builder {
	return &Builder{d: d}
}

// Inert returns a Builder that discards everything.
func Inert() *Builder {
	return &Builder{}
}

// Live reports whether the diagnostic will be delivered.
func (b *Builder) Live() bool {
	return b != nil && b.d != nil
}

func (b *Builder) Diagnostic() *Diagnostic {
	if b == nil {
		return nil
	}
	return b.d
}

// Arg appends the next positional argument. A location.Range is recorded as
// a highlighted range instead.
func (b *Builder) Arg(v any) *Builder {
	if !b.Live() {
		return b
	}
	if r, ok := v.(location.Range); ok {
		b.d.Ranges = append(b.d.Ranges, r)
		return b
	}
	b.d.Args = append(b.d.Args, v)
	return b
}

func (b *Builder) Args(vs ...any) *Builder {
	for _, v := range vs {
		b.Arg(v)
	}
	return b
}

func (b *Builder) Range(r location.Range) *Builder {
	if b.Live() {
		b.d.Ranges = append(b.d.Ranges, r)
	}
	return b
}

// Fix attaches a replacement of r by text.
func (b *Builder) Fix(r location.Range, text string) *Builder {
	if b.Live() {
		b.d.Fixes = append(b.d.Fixes, FixIt{Range: r, Text: text})
	}
	return b
}

// Note attaches a note at where and returns a Builder for it.
func (b *Builder) Note(where location.Location, msg string) *Builder {
	if !b.Live() {
		return b
	}
	n := &Diagnostic{Where: where, Tag: b.d.Tag, Message: msg, Severity: Note}
	b.d.Notes = append(b.d.Notes, n)
	return &Builder{d: n}
}
