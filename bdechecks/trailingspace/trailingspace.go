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

package trailingspace

import (
	"strings"

	"naive.systems/bdeverify/cruleslib/analyzer"
	"naive.systems/bdeverify/cruleslib/checks"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/ppobserver"
)

const Tag = "trailing-space"

var Check = checks.Check{
	Tag:         Tag,
	Description: "no whitespace at the end of a line",
	Attach:      attach,
}

type entered struct {
	files []string
	seen  map[string]bool
}

func attach(a *analyzer.Analyzer) {
	e := analyzer.Attachment[entered](a)
	e.seen = make(map[string]bool)
	a.PP().OnFileChanged.Subscribe(func(fc ppobserver.FileChange) {
		if fc.Reason == ppobserver.EnterFile && fc.Kind == ppobserver.UserFile && !e.seen[fc.File] {
			e.seen[fc.File] = true
			e.files = append(e.files, fc.File)
		}
	})
	a.OnTranslationUnitDone.Subscribe(func(a *analyzer.Analyzer) {
		for _, name := range e.files {
			f, ok := a.Sources().Get(name)
			if !ok {
				continue
			}
			for i := 1; i <= f.LineCount(); i++ {
				line := uint(i)
				text := f.Line(line)
				trimmed := strings.TrimRight(text, " \t")
				if len(trimmed) == len(text) {
					continue
				}
				from := location.New(name, line, uint(len(trimmed)+1))
				to := location.New(name, line, uint(len(text)+1))
				a.Report(from, Tag, "TS01", "Trailing whitespace").
					Fix(location.NewRange(from, to), "")
			}
		}
	})
}
