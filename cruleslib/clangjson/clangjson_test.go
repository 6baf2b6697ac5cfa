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

package clangjson

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/location"
)

const dump = `{
  "id": "0x1", "kind": "TranslationUnitDecl", "loc": {}, "range": {"begin": {}, "end": {}},
  "inner": [
    {"id": "0x2", "kind": "TypedefDecl", "loc": {}, "range": {"begin": {}, "end": {}},
     "isImplicit": true, "name": "__int128_t", "type": {"qualType": "__int128"}},
    {"id": "0x3", "kind": "NamespaceDecl",
     "loc": {"offset": 10, "file": "a.cpp", "line": 2, "col": 11, "tokLen": 1},
     "range": {"begin": {"offset": 0, "col": 1, "tokLen": 9},
               "end": {"offset": 40, "line": 5, "col": 1, "tokLen": 1}},
     "name": "a",
     "inner": [
       {"id": "0x4", "kind": "CXXRecordDecl",
        "loc": {"offset": 20, "line": 3, "col": 7, "tokLen": 1},
        "range": {"begin": {"offset": 14, "col": 1, "tokLen": 5},
                  "end": {"offset": 22, "col": 9, "tokLen": 1}},
        "name": "C", "tagUsed": "class", "completeDefinition": true,
        "inner": [
          {"id": "0x5", "kind": "FinalAttr", "range": {"begin": {"offset": 21, "col": 8, "tokLen": 1}, "end": {"offset": 21, "col": 8, "tokLen": 1}}},
          {"id": "0x6", "kind": "CXXRecordDecl", "loc": {"offset": 20, "col": 7, "tokLen": 1},
           "range": {"begin": {"offset": 14, "col": 1, "tokLen": 5}, "end": {"offset": 20, "col": 7, "tokLen": 1}},
           "isImplicit": true, "name": "C", "tagUsed": "class"}
        ]},
       {"id": "0x7", "kind": "ObjCProtocolDecl",
        "loc": {"spellingLoc": {"offset": 30, "line": 4, "col": 3, "tokLen": 2},
                "expansionLoc": {"offset": 50, "file": "b.h", "line": 9, "col": 1, "tokLen": 4}},
        "range": {"begin": {"offset": 50, "col": 1, "tokLen": 4}, "end": {"offset": 50, "col": 1, "tokLen": 4}}}
     ]}
  ]
}`

func TestDecode(t *testing.T) {
	root, err := Decode(strings.NewReader(dump))
	require.NoError(t, err)
	require.Equal(t, ast.TranslationUnitDecl, root.Kind)
	require.Len(t, root.Children, 2)

	td := root.Children[0]
	assert.True(t, td.Implicit)
	assert.Equal(t, "__int128", td.Attr("type"))
	assert.False(t, td.Location().IsValid())

	ns := root.Children[1]
	assert.Equal(t, ast.NamespaceDecl, ns.Kind)
	assert.Equal(t, location.New("a.cpp", 2, 11), ns.Loc.Key())
	assert.Equal(t, 10, ns.Loc.Offset)
	assert.Equal(t, location.New("a.cpp", 2, 1), ns.Range.From.Key())
	// The end of a range is one past its last token.
	assert.Equal(t, location.New("a.cpp", 5, 2), ns.Range.To.Key())
	assert.Equal(t, 41, ns.Range.To.Offset)

	require.Len(t, ns.Children, 2)
	cls := ns.Children[0]
	assert.Equal(t, "class", cls.Attr("tagUsed"))
	assert.Equal(t, "true", cls.Attr("attr:FinalAttr"))
	require.Len(t, cls.Children, 1)
	assert.True(t, cls.Children[0].Implicit)
	assert.Equal(t, uint(3), cls.Children[0].Loc.Line)

	objc := ns.Children[1]
	assert.Equal(t, ast.UnknownDecl, objc.Kind)
	assert.Equal(t, "ObjCProtocolDecl", objc.RawKind)
	// Spelling wins over expansion.
	assert.Equal(t, location.New("a.cpp", 4, 3), objc.Loc.Key())
	// The expansion part still updated the elided file.
	assert.Equal(t, "b.h", objc.Range.From.File)

	ids := map[int]bool{}
	ast.Inspect(root, func(n *ast.Node) bool {
		assert.False(t, ids[n.ID], "duplicate id %d", n.ID)
		ids[n.ID] = true
		return true
	})
}

func TestDecodeKeepFiles(t *testing.T) {
	root, err := Decode(strings.NewReader(dump), KeepFiles(func(f string) bool { return f == "b.h" }))
	require.NoError(t, err)
	// The implicit typedef has no location and stays.
	require.Len(t, root.Children, 1)
	assert.Equal(t, ast.TypedefDecl, root.Children[0].Kind)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader("{"))
	assert.Error(t, err)
	_, err = Decode(strings.NewReader("{}"))
	assert.Error(t, err)
}
