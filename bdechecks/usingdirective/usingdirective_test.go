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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naive.systems/bdeverify/cruleslib/analyzer"
	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/testlib"
)

const main = "/s/a.cpp"

const source = `namespace a {}
using namespace a;
void f() {
    using namespace a;
}
int x; using namespace a; int y;
`

func using(line, col uint) *ast.Node {
	n := testlib.Node(ast.UsingDirectiveDecl, "", location.New(main, line, col), 17)
	n.SetAttr("nominatedNamespace", "a")
	return n
}

func tree() *ast.Node {
	body := &ast.Node{Kind: ast.CompoundStmt, Children: []*ast.Node{using(4, 5)}}
	f := testlib.Node(ast.FunctionDecl, "f", location.New(main, 3, 6), 1, body)
	return testlib.TU(using(2, 1), f, using(6, 8))
}

func TestUsingDirective(t *testing.T) {
	run, err := testlib.RunChecks(testlib.Unit{
		Files:   map[string]string{main: source},
		Main:    main,
		Tree:    tree(),
		Options: []analyzer.Option{analyzer.WithFixes(true)},
	}, Check)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"a.cpp:2:1 UD01 Using directive for namespace a outside a function",
		"a.cpp:6:8 UD01 Using directive for namespace a outside a function",
	}, testlib.ToTestResult(run.Results))

	got, err := run.Rewritten(main)
	require.NoError(t, err)
	assert.Equal(t, "namespace a {}\nvoid f() {\n    using namespace a;\n}\nint x;  int y;\n", got)
}

func TestUsingDirectiveSuppressed(t *testing.T) {
	run, err := testlib.RunChecks(testlib.Unit{
		Files:  map[string]string{main: source},
		Main:   main,
		Tree:   tree(),
		Config: []string{"suppress using-directive *.cpp"},
	}, Check)
	require.NoError(t, err)
	assert.Equal(t, 0, run.Results.Len())
}
