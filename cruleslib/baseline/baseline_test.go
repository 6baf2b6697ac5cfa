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

package baseline

import (
	"path/filepath"
	"testing"

	"naive.systems/bdeverify/cruleslib/diag"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/results"
	"naive.systems/bdeverify/diff"
)

const insertion = `--- a/src/a.cpp
+++ b/src/a.cpp
@@ -2,0 +3 @@
+X
`

const insertionWithContext = `--- a/src/a.cpp
+++ b/src/a.cpp
@@ -2,2 +2,3 @@
 b
+X
 c
`

func parse(t *testing.T, s string) []*diff.Hunk {
	p, err := diff.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return p.FileHunks("src/a.cpp")
}

func TestCompareIssuesThroughHunks(t *testing.T) {
	for _, testCase := range [...]struct {
		name     string
		patch    string
		newline  int
		oldline  int
		expected bool
	}{
		{name: "above", patch: insertion, newline: 1, oldline: 1, expected: true},
		{name: "below shifted", patch: insertion, newline: 4, oldline: 3, expected: true},
		{name: "below unshifted", patch: insertion, newline: 4, oldline: 4, expected: false},
		{name: "added", patch: insertion, newline: 3, oldline: 3, expected: false},
		{name: "context before", patch: insertionWithContext, newline: 2, oldline: 2, expected: true},
		{name: "context after", patch: insertionWithContext, newline: 4, oldline: 3, expected: true},
		{name: "context added", patch: insertionWithContext, newline: 3, oldline: 3, expected: false},
		{name: "far below", patch: insertionWithContext, newline: 10, oldline: 9, expected: true},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			got := CompareIssuesThroughHunks(testCase.newline, testCase.oldline, parse(t, testCase.patch))
			if got != testCase.expected {
				t.Errorf("CompareIssuesThroughHunks(%d, %d) = %v, expected %v", testCase.newline, testCase.oldline, got, testCase.expected)
			}
		})
	}
}

func TestRemoveKnown(t *testing.T) {
	old := []*diag.Diagnostic{
		{Where: location.New("/src/a.cpp", 3, 1), Tag: "long-lines", Code: "LL01", Message: "line too long", Severity: diag.Warning},
		{Where: location.New("/src/a.cpp", 5, 1), Tag: "pragma", Code: "PR01", Message: "unmatched pop", Severity: diag.Error, Always: true},
	}
	path := filepath.Join(t.TempDir(), "results.json")
	if err := results.NewResultsSetFromList(old).WriteJSON(path); err != nil {
		t.Fatal(err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 2 {
		t.Errorf("baseline holds %d diagnostics, expected 2", b.Len())
	}
	p, err := diff.Parse(insertion)
	if err != nil {
		t.Fatal(err)
	}
	set := results.NewResultsSetFromList([]*diag.Diagnostic{
		{Where: location.New("/src/a.cpp", 4, 1), Tag: "long-lines", Code: "LL01", Message: "line too long", Severity: diag.Warning},
		{Where: location.New("/src/a.cpp", 3, 1), Tag: "long-lines", Code: "LL01", Message: "line too long", Severity: diag.Warning},
		{Where: location.New("/src/a.cpp", 6, 1), Tag: "pragma", Code: "PR01", Message: "unmatched pop", Severity: diag.Error, Always: true},
	})
	if n := b.RemoveKnown(set, p); n != 1 {
		t.Errorf("RemoveKnown dropped %d diagnostics, expected 1", n)
	}
	if set.Len() != 2 || set.Results[0].Where.Line != 3 || set.Results[1].Tag != "pragma" {
		t.Errorf("unexpected remaining diagnostics %v", set.Results)
	}
}

func TestKnownWithoutPatch(t *testing.T) {
	b := New([]*diag.Diagnostic{{Where: location.New("a.h", 2, 1), Tag: "x", Message: "m"}})
	if !b.Known(&diag.Diagnostic{Where: location.New("a.h", 2, 4), Tag: "x", Message: "m"}, nil) {
		t.Errorf("same line should be known")
	}
	if b.Known(&diag.Diagnostic{Where: location.New("a.h", 3, 1), Tag: "x", Message: "m"}, nil) {
		t.Errorf("other line should not be known")
	}
	if b.Known(&diag.Diagnostic{Where: location.New("b.h", 2, 1), Tag: "x", Message: "m"}, nil) {
		t.Errorf("other file should not be known")
	}
}
