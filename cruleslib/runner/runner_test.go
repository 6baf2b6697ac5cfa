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

package runner

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"naive.systems/bdeverify/cpumem"
	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/compilecommand"
	"naive.systems/bdeverify/cruleslib/diag"
	"naive.systems/bdeverify/cruleslib/location"
)

func TestParaTaskRunner(t *testing.T) {
	analyze := func(tu TranslationUnit) (*Outcome, error) {
		switch filepath.Base(tu.File) {
		case "broken.cpp":
			return nil, errors.New("no AST")
		case "panics.cpp":
			panic("check crashed")
		}
		shared := &diag.Diagnostic{Where: location.New("a.h", 1, 1), Tag: "t", Code: "C1", Message: "in header"}
		own := &diag.Diagnostic{Where: location.New(tu.File, 2, 1), Tag: "t", Code: "C2", Message: "in source"}
		return &Outcome{
			Diagnostics:     []*diag.Diagnostic{shared, own},
			Rewritten:       map[string][]byte{"a.h": []byte("fixed\n")},
			Diffs:           map[string]string{"a.h": "diff\n"},
			HandlerFailures: 1,
		}, nil
	}
	files := []string{"a.cpp", "broken.cpp", "b.cpp", "panics.cpp"}
	pt := NewParaTaskRunner(2, len(files), false, "en", "")
	for i, f := range files {
		if c, _ := pt.CheckSignalExiting(); c != nil {
			t.Fatal("unexpected interrupt")
		}
		pt.AddTask(AnalyzerTask{Id: i, TU: TranslationUnit{File: f}, Analyze: analyze})
	}
	c, errs := pt.CollectResultsAndErrors()
	if c.Results.Len() != 3 {
		t.Errorf("expected 3 distinct results, got %d", c.Results.Len())
	}
	if c.HandlerFailures != 2 {
		t.Errorf("expected 2 handler failures, got %d", c.HandlerFailures)
	}
	if !reflect.DeepEqual(c.Files(), []string{"a.h"}) || c.Diffs["a.h"] != "diff\n" {
		t.Errorf("unexpected rewrites %v %v", c.Files(), c.Diffs)
	}
	if errs[0] != nil || errs[1] == nil || errs[2] != nil || errs[3] == nil {
		t.Errorf("unexpected errors %v", errs)
	}
	err := FirstError(errs)
	if err == nil || !strings.HasPrefix(err.Error(), "2 translation unit(s) failed") {
		t.Errorf("unexpected first error %v", err)
	}
	if FirstError([]error{nil, nil}) != nil {
		t.Errorf("FirstError of no errors should be nil")
	}
}

func TestFromCompileCommand(t *testing.T) {
	cc := compilecommand.CompileCommand{
		Command:   "g++ -Iinc -isystem /usr/local/include -DX=1 -c -o x.o src/x.cpp",
		File:      "src/x.cpp",
		Directory: "/w",
	}
	tu, err := FromCompileCommand(cc, []string{"-std=c++17"})
	if err != nil {
		t.Fatal(err)
	}
	expected := TranslationUnit{
		File:        "/w/src/x.cpp",
		Directory:   "/w",
		Args:        []string{"-I/w/inc", "-isystem", "/usr/local/include", "-DX=1", "-std=c++17"},
		IncludeDirs: []string{"/w/inc"},
		SystemDirs:  []string{"/usr/local/include"},
	}
	if !reflect.DeepEqual(tu, expected) {
		t.Errorf("unexpected translation unit %+v, expected %+v", tu, expected)
	}
	o := ASTOptions{ClangBin: "clang++"}
	args := o.ClangArgs(tu)
	if args[len(args)-1] != "/w/src/x.cpp" || args[len(args)-2] != "-ast-dump=json" {
		t.Errorf("unexpected clang args %v", args)
	}
}

func TestFromFile(t *testing.T) {
	tu, err := FromFile("/src/a.cpp", []string{"-std=c++20"}, []string{"/inc"}, []string{"/sys"})
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"-std=c++20", "-I", "/inc", "-isystem", "/sys"}
	if tu.Directory != "/src" || !reflect.DeepEqual(tu.Args, expected) {
		t.Errorf("unexpected translation unit %+v", tu)
	}
}

func TestLoadASTFromDir(t *testing.T) {
	dir := t.TempDir()
	dump := `{"id": "0x1", "kind": "TranslationUnitDecl", "inner": [
	  {"id": "0x2", "kind": "NamespaceDecl", "name": "a",
	   "loc": {"offset": 10, "file": "x.cpp", "line": 1, "col": 11, "tokLen": 1},
	   "range": {"begin": {"offset": 0, "col": 1, "tokLen": 9}, "end": {"offset": 13, "col": 14, "tokLen": 1}}}]}`
	if err := os.WriteFile(filepath.Join(dir, "x.json"), []byte(dump), 0644); err != nil {
		t.Fatal(err)
	}
	o := ASTOptions{AstDir: dir, Pool: cpumem.NewPool(1, 1024)}
	if o.DumpPath("/src/x.cpp") != filepath.Join(dir, "x.json") {
		t.Errorf("unexpected dump path %s", o.DumpPath("/src/x.cpp"))
	}
	root, err := LoadAST(TranslationUnit{File: "/src/x.cpp"}, o, nil)
	if err != nil {
		t.Fatal(err)
	}
	if root.Kind != ast.TranslationUnitDecl || len(root.Children) != 1 || root.Children[0].Name != "a" {
		t.Errorf("unexpected tree %v", root)
	}
	if _, err := LoadAST(TranslationUnit{File: "/src/y.cpp"}, o, nil); err == nil {
		t.Errorf("expected an error for a missing dump")
	}
}
