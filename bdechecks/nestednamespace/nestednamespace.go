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

// Package nestednamespace checks that component code lives in the
// enterprise namespace, inside a namespace named after its package.
package nestednamespace

import (
	"naive.systems/bdeverify/cruleslib/analyzer"
	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/checks"
)

const Tag = "nested-namespace"

var Check = checks.Check{
	Tag:         Tag,
	Description: "component namespaces are <enterprise>::<package>",
	Attach:      attach,
}

func attach(a *analyzer.Analyzer) {
	a.Visitor().On(ast.NamespaceDecl).Subscribe(func(n *ast.Node) {
		if n.Name == "" || n.Implicit || !a.IsComponent(n.Location().File) {
			return
		}
		enterprise := a.Config().Namespace()
		outer := a.GetParent(n, ast.NamespaceDecl)
		switch {
		case outer == nil:
			if n.Name != enterprise && !a.IsStandardNamespace(n.Name) {
				a.ReportNode(n, Tag, "NN01", "Top-level namespace %0 should be %1").
					Args(n.Name, enterprise)
			}
		case outer.Name == enterprise && a.GetParent(outer, ast.NamespaceDecl) == nil:
			if n.Name != a.Package() {
				a.ReportNode(n, Tag, "NN02", "Namespace %0 in %1 should be named after package %2").
					Args(n.Name, enterprise, a.Package())
			}
		}
	})
}
