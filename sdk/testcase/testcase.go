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

// Package testcase runs checks over a directory of sources and compares
// the diagnostics with the expected.txt file of that directory.
//
// Every regular file of the directory is a source file except:
//
//	expected.txt  expected diagnostics, one "file:line:col CODE text" per line
//	config        configuration lines processed before the checks attach
//	ast.json      clang JSON dump of the tree; $SRCDIR stands for the directory
//
// The main file is the only .cpp file of the directory.
package testcase

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"naive.systems/bdeverify/cruleslib/checks"
	"naive.systems/bdeverify/cruleslib/clangjson"
	"naive.systems/bdeverify/cruleslib/testlib"
)

const (
	expectedFile = "expected.txt"
	configFile   = "config"
	astFile      = "ast.json"
)

type TestCase struct {
	t      *testing.T
	Srcdir string
	Unit   testlib.Unit
}

func New(t *testing.T, dirname string) TestCase {
	srcdir, err := filepath.Abs(dirname)
	if err != nil {
		t.Fatalf("filepath.Abs(%s): %v", dirname, err)
	}
	entries, err := os.ReadDir(srcdir)
	if err != nil {
		t.Fatalf("os.ReadDir(%s): %v", srcdir, err)
	}
	u := testlib.Unit{Files: make(map[string]string), IncludeDirs: []string{srcdir}}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(srcdir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("os.ReadFile(%s): %v", path, err)
		}
		switch entry.Name() {
		case expectedFile:
		case configFile:
			u.Config = strings.Split(string(content), "\n")
		case astFile:
			dump := strings.ReplaceAll(string(content), "$SRCDIR", srcdir)
			u.Tree, err = clangjson.Decode(strings.NewReader(dump))
			if err != nil {
				t.Fatalf("clangjson.Decode(%s): %v", path, err)
			}
		default:
			u.Files[path] = string(content)
			if filepath.Ext(path) == ".cpp" {
				if u.Main != "" {
					t.Fatalf("%s: more than one main file", srcdir)
				}
				u.Main = path
			}
		}
	}
	if u.Main == "" {
		t.Fatalf("%s: no main file", srcdir)
	}
	return TestCase{t, srcdir, u}
}

// Run runs cs over the directory.
func (tc *TestCase) Run(cs ...checks.Check) (*testlib.Run, error) {
	return testlib.RunChecks(tc.Unit, cs...)
}

func (tc *TestCase) expected() []string {
	path := filepath.Join(tc.Srcdir, expectedFile)
	bytes, err := os.ReadFile(path)
	if err != nil {
		tc.t.Fatalf("os.ReadFile(%s): %v", path, err)
	}
	var expected []string
	for _, line := range strings.Split(string(bytes), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			expected = append(expected, line)
		}
	}
	slices.Sort(expected)
	return expected
}

func (tc *TestCase) expectedEquals(actual []string) bool {
	return slices.Equal(tc.expected(), actual)
}

func (tc *TestCase) dump(actual []string) {
	tc.t.Log("actual results:\n" + strings.Join(actual, "\n"))
}

func (tc *TestCase) ExpectOK(run *testlib.Run, err error) {
	if err != nil {
		tc.t.Fatalf("checker returned error: %v", err)
	}
	actual := testlib.ToTestResult(run.Results)
	if !tc.expectedEquals(actual) {
		tc.dump(actual)
		tc.t.Fatal("checker is expected to be OK")
	}
}

func (tc *TestCase) ExpectFailure(run *testlib.Run, err error) {
	if err != nil {
		tc.t.Fatalf("checker returned error: %v", err)
	}
	actual := testlib.ToTestResult(run.Results)
	if tc.expectedEquals(actual) {
		tc.dump(actual)
		tc.t.Fatal("checker is expected to fail")
	}
}

func (tc *TestCase) ExpectError(_ *testlib.Run, err error) {
	if err == nil {
		tc.t.Fatal("checker is expected to return an error")
	}
	tc.t.Logf("checker returned error: %v", err)
}
