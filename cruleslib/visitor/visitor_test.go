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

package visitor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"naive.systems/bdeverify/cruleslib/ast"
)

func node(k ast.Kind, name string, kids ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: k, Name: name, Children: kids}
}

func implicit(n *ast.Node) *ast.Node {
	n.Implicit = true
	return n
}

func sample() *ast.Node {
	body := node(ast.CompoundStmt, "",
		node(ast.ReturnStmt, "", node(ast.IntegerLiteral, "0")))
	fn := node(ast.FunctionDecl, "f", node(ast.ParmVarDecl, "p"), body)
	cls := node(ast.CXXRecordDecl, "C",
		implicit(node(ast.CXXRecordDecl, "C")),
		node(ast.FieldDecl, "m"),
		implicit(node(ast.CXXConstructorDecl, "C")))
	tmpl := node(ast.FunctionTemplateDecl, "g",
		node(ast.TemplateTypeParmDecl, "T"),
		node(ast.FunctionDecl, "g"),
		node(ast.FunctionDecl, "g<int>"))
	ns := node(ast.NamespaceDecl, "a", cls, fn, tmpl)
	return node(ast.TranslationUnitDecl, "", ns, implicit(node(ast.TypedefDecl, "__int128_t")))
}

func names(v *Visitor, kinds ...ast.Kind) *[]string {
	var got []string
	v.OnDecl.Subscribe(func(n *ast.Node) { got = append(got, "D:"+n.Kind.String()+":"+n.Name) })
	v.OnStmt.Subscribe(func(n *ast.Node) { got = append(got, "S:"+n.Kind.String()) })
	for _, k := range kinds {
		k := k
		v.On(k).Subscribe(func(n *ast.Node) { got = append(got, k.String()+":"+n.Name) })
	}
	return &got
}

func TestDispatchOrder(t *testing.T) {
	v := New()
	got := names(v, ast.FunctionDecl, ast.TagDecl, ast.TemplateDecl)
	v.Visit(sample())

	want := []string{
		"D:TranslationUnitDecl:",
		"D:NamespaceDecl:a",
		"D:CXXRecordDecl:C",
		"TagDecl:C",
		"D:FieldDecl:m",
		"D:FunctionDecl:f",
		"FunctionDecl:f",
		"D:ParmVarDecl:p",
		"S:CompoundStmt",
		"S:ReturnStmt",
		"S:IntegerLiteral",
		"D:FunctionTemplateDecl:g",
		"TemplateDecl:g",
		"D:TemplateTypeParmDecl:T",
		"D:FunctionDecl:g",
		"FunctionDecl:g",
	}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, len(want)-3, v.Visited())
}

func TestEveryNodeOnceWithRecurseAll(t *testing.T) {
	v := New()
	v.SetPolicy(ast.Decl, RecurseAll)
	v.SetPolicy(ast.TranslationUnitDecl, RecurseAll)
	v.SetPolicy(ast.TagDecl, RecurseAll)
	v.SetPolicy(ast.TemplateDecl, RecurseAll)
	root := sample()
	ast.Number(root)
	seen := map[int]int{}
	v.OnDecl.Subscribe(func(n *ast.Node) { seen[n.ID]++ })
	v.OnStmt.Subscribe(func(n *ast.Node) { seen[n.ID]++ })
	v.Visit(root)
	assert.Equal(t, ast.Count(root), len(seen))
	for id, c := range seen {
		assert.Equal(t, 1, c, "node %d", id)
	}
}

func TestLineageOrderAndExit(t *testing.T) {
	v := New()
	var got []string
	for _, k := range []ast.Kind{ast.CXXConstructorDecl, ast.FunctionDecl, ast.DeclaratorDecl} {
		k := k
		v.On(k).Subscribe(func(*ast.Node) { got = append(got, "in:"+k.String()) })
		v.OnExit(k).Subscribe(func(*ast.Node) { got = append(got, "out:"+k.String()) })
	}
	v.OnDeclExit.Subscribe(func(*ast.Node) { got = append(got, "out:Decl") })
	v.Visit(node(ast.CXXConstructorDecl, "C"))
	assert.Equal(t, []string{
		"in:DeclaratorDecl", "in:FunctionDecl", "in:CXXConstructorDecl",
		"out:CXXConstructorDecl", "out:FunctionDecl", "out:DeclaratorDecl", "out:Decl",
	}, got)
}

func TestAncestorsAndDepth(t *testing.T) {
	v := New()
	var depth int
	var anc []string
	v.On(ast.IntegerLiteral).Subscribe(func(n *ast.Node) {
		depth = v.Depth()
		assert.Same(t, n, v.Current())
		for _, a := range v.Ancestors() {
			anc = append(anc, a.Kind.String())
		}
	})
	v.Visit(sample())
	assert.Equal(t, 6, depth)
	assert.Equal(t, []string{"TranslationUnitDecl", "NamespaceDecl", "FunctionDecl", "CompoundStmt", "ReturnStmt"}, anc)
	assert.Equal(t, 0, v.Depth())
	assert.Nil(t, v.Current())
}

func TestPolicyNoneAndOverride(t *testing.T) {
	v := New()
	v.SetPolicy(ast.NamespaceDecl, RecurseNone)
	got := names(v)
	v.Visit(sample())
	assert.Equal(t, []string{"D:TranslationUnitDecl:", "D:NamespaceDecl:a"}, *got)
	assert.Equal(t, RecurseExplicit, v.PolicyFor(ast.ClassTemplateSpecializationDecl))
	assert.Equal(t, RecursePattern, v.PolicyFor(ast.ClassTemplateDecl))
	assert.Equal(t, RecurseAll, v.PolicyFor(ast.CallExpr))
}

func TestUnknownKindReachesFamilyRoot(t *testing.T) {
	v := New()
	got := names(v)
	v.Visit(&ast.Node{Kind: ast.UnknownStmt, RawKind: "CXXDefaultArgExpr"})
	assert.Equal(t, []string{"S:UnknownStmt"}, *got)
}

func TestPanickingHandlerDoesNotStopWalk(t *testing.T) {
	v := New()
	var panics int
	v.SetPanicHandler(func(string, int, any) { panics++ })
	v.On(ast.FieldDecl).Subscribe(func(*ast.Node) { panic("bad shape") })
	got := names(v)
	v.Visit(sample())
	assert.Equal(t, 1, panics)
	assert.Contains(t, *got, "S:IntegerLiteral")
}

func TestDeepTree(t *testing.T) {
	const depth = 200000
	root := node(ast.ParenExpr, "")
	cur := root
	for i := 0; i < depth; i++ {
		c := node(ast.ParenExpr, "")
		cur.Children = []*ast.Node{c}
		cur = c
	}
	v := New()
	max := 0
	v.OnStmt.Subscribe(func(*ast.Node) {
		if v.Depth() > max {
			max = v.Depth()
		}
	})
	v.Visit(root)
	assert.Equal(t, depth+1, max)
	assert.Equal(t, depth+1, v.Visited())
}
