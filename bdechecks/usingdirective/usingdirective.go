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

package usingdirective

import (
	"strings"

	"naive.systems/bdeverify/cruleslib/analyzer"
	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/checks"
	"naive.systems/bdeverify/cruleslib/location"
)

const Tag = "using-directive"

var Check = checks.Check{
	Tag:         Tag,
	Description: "no using directives outside function bodies",
	Attach:      attach,
}

func attach(a *analyzer.Analyzer) {
	a.Visitor().On(ast.UsingDirectiveDecl).Subscribe(func(n *ast.Node) {
		if n.Implicit || a.GetParent(n, ast.FunctionDecl) != nil {
			return
		}
		name := n.Attr("nominatedNamespace")
		if name == "" {
			name = n.Name
		}
		b := a.ReportNode(n, Tag, "UD01", "Using directive for namespace %0 outside a function").Arg(name)
		if r, ok := removal(a, n.Range); ok {
			b.Fix(r, "")
		}
	})
}

// removal extends r through the terminating semicolon, and to the whole
// line when nothing else is on it.
func removal(a *analyzer.Analyzer, r location.Range) (location.Range, bool) {
	f, start, end, err := a.Sources().Span(r)
	if err != nil {
		return location.Range{}, false
	}
	c := f.Content
	semi := strings.IndexByte(string(c[end:]), ';')
	if semi < 0 {
		return location.Range{}, false
	}
	end += semi + 1
	lineStart := start
	for lineStart > 0 && (c[lineStart-1] == ' ' || c[lineStart-1] == '\t') {
		lineStart--
	}
	lineEnd := end
	for lineEnd < len(c) && (c[lineEnd] == ' ' || c[lineEnd] == '\t') {
		lineEnd++
	}
	if (lineStart == 0 || c[lineStart-1] == '\n') && (lineEnd == len(c) || c[lineEnd] == '\n') {
		start = lineStart
		end = lineEnd
		if end < len(c) {
			end++
		}
	}
	return location.NewRange(f.Position(start), f.Position(end)), true
}
