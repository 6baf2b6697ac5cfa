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

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsA(t *testing.T) {
	assert.True(t, CXXConstructorDecl.IsA(FunctionDecl))
	assert.True(t, CXXConstructorDecl.IsA(DeclaratorDecl))
	assert.True(t, CXXConstructorDecl.IsA(Decl))
	assert.False(t, CXXConstructorDecl.IsA(Stmt))
	assert.True(t, ClassTemplatePartialSpecializationDecl.IsA(TagDecl))
	assert.True(t, CaseStmt.IsA(SwitchCase))
	assert.True(t, ImplicitCastExpr.IsA(Expr))
	assert.False(t, EnumDecl.IsA(RecordDecl))
}

func TestLineage(t *testing.T) {
	assert.Equal(t, []Kind{Decl, DeclaratorDecl, FunctionDecl, CXXMethodDecl}, CXXMethodDecl.Lineage())
	assert.Equal(t, []Kind{Stmt}, Stmt.Lineage())
	for k := Kind(0); k < numKinds; k++ {
		l := k.Lineage()
		assert.Equal(t, k.Root(), l[0], k.String())
		assert.Equal(t, k, l[len(l)-1], k.String())
		assert.Equal(t, len(l), cap(l), k.String())
	}
}

func TestKindFromName(t *testing.T) {
	assert.Equal(t, NamespaceDecl, KindFromName("NamespaceDecl"))
	assert.Equal(t, UnknownDecl, KindFromName("ObjCInterfaceDecl"))
	assert.Equal(t, UnknownStmt, KindFromName("CXXDefaultArgExpr"))
	// Abstract names never come from the host.
	assert.Equal(t, UnknownDecl, KindFromName("TagDecl"))
	k, ok := LookupKind("TagDecl")
	assert.True(t, ok)
	assert.Equal(t, TagDecl, k)
}

func TestKindTableConsistent(t *testing.T) {
	for k := Kind(0); k < Kind(NumKinds); k++ {
		require.NotEmpty(t, k.String(), "kind %d has no name", k)
		assert.Equal(t, k.Family(), k.Parent().Family(), k.String())
		assert.True(t, k.IsA(k.Root()), k.String())
	}
}

func tree() (*Node, map[string]*Node) {
	ret := &Node{Kind: ReturnStmt}
	body := &Node{Kind: CompoundStmt, Children: []*Node{ret}}
	fn := &Node{Kind: CXXMethodDecl, Name: "f", Children: []*Node{body}}
	cls := &Node{Kind: CXXRecordDecl, Name: "C", Children: []*Node{fn}}
	ns := &Node{Kind: NamespaceDecl, Name: "a", Children: []*Node{cls}}
	tu := &Node{Kind: TranslationUnitDecl, Children: []*Node{ns}}
	Number(tu)
	return tu, map[string]*Node{"tu": tu, "ns": ns, "cls": cls, "fn": fn, "body": body, "ret": ret}
}

func TestParentMap(t *testing.T) {
	tu, n := tree()
	pm := NewParentMap(tu)
	assert.Equal(t, 5, pm.Len())
	assert.Nil(t, pm.Parent(tu))
	assert.Same(t, n["body"], pm.Parent(n["ret"]))
	assert.Same(t, n["cls"], pm.Ancestor(n["ret"], TagDecl))
	assert.Same(t, n["fn"], pm.Ancestor(n["ret"], FunctionDecl, NamespaceDecl))
	assert.Same(t, n["ns"], pm.Ancestor(n["ret"], NamespaceDecl))
	assert.Nil(t, pm.Ancestor(n["ret"], EnumDecl))
	assert.Equal(t, []*Node{tu, n["ns"], n["cls"], n["fn"], n["body"], n["ret"]}, pm.Path(n["ret"]))
}

func TestNumberAndInspect(t *testing.T) {
	tu, n := tree()
	assert.Equal(t, 1, tu.ID)
	assert.Equal(t, 6, n["ret"].ID)
	assert.Equal(t, 6, Count(tu))

	var seen []string
	Inspect(tu, func(x *Node) bool {
		seen = append(seen, x.Kind.String())
		return x.Kind != CXXRecordDecl
	})
	assert.Equal(t, []string{"TranslationUnitDecl", "NamespaceDecl", "CXXRecordDecl"}, seen)
}
