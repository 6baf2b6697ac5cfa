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

package longlines

import (
	"strconv"
	"unicode/utf8"

	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/analyzer"
	"naive.systems/bdeverify/cruleslib/checks"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/ppobserver"
)

const (
	Tag = "long-lines"
	// KeyMaxLineLength is the configuration value holding the limit.
	KeyMaxLineLength = "max_line_length"

	DefaultMaxLineLength = 79
)

var Check = checks.Check{
	Tag:         Tag,
	Description: "lines are at most max_line_length characters long",
	Attach:      attach,
}

type files struct {
	names []string
	seen  map[string]bool
}

func (f *files) Attach(a *analyzer.Analyzer) {
	f.seen = make(map[string]bool)
}

func attach(a *analyzer.Analyzer) {
	f := analyzer.Attachment[files](a)
	a.PP().OnFileChanged.Subscribe(func(fc ppobserver.FileChange) {
		if fc.Reason == ppobserver.EnterFile && fc.Kind == ppobserver.UserFile && !f.seen[fc.File] {
			f.seen[fc.File] = true
			f.names = append(f.names, fc.File)
		}
	})
	a.OnTranslationUnitDone.Subscribe(func(a *analyzer.Analyzer) {
		for _, name := range f.names {
			check(a, name)
		}
	})
}

// limit returns max_line_length in effect at where.
func limit(a *analyzer.Analyzer, where location.Location) int {
	v := a.Value(KeyMaxLineLength, where)
	if v == "" {
		return DefaultMaxLineLength
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		glog.V(1).Infof("long-lines: bad %s %q at %v", KeyMaxLineLength, v, where)
		return DefaultMaxLineLength
	}
	return n
}

func check(a *analyzer.Analyzer, name string) {
	file, ok := a.Sources().Get(name)
	if !ok {
		return
	}
	for i := 1; i <= file.LineCount(); i++ {
		line := uint(i)
		text := file.Line(line)
		max := limit(a, location.New(name, line, 1))
		n := utf8.RuneCountInString(text)
		if n <= max {
			continue
		}
		// byte column of the first character past the limit
		col, runes := 1, 0
		for off := range text {
			if runes == max {
				col = off + 1
				break
			}
			runes++
		}
		a.Report(location.New(name, line, uint(col)), Tag, "LL01", "Line exceeds %0 characters (%1)").
			Args(max, n)
	}
}
