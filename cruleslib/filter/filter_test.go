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

package filter

import (
	"path/filepath"
	"testing"

	"naive.systems/bdeverify/cruleslib/diag"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/results"
)

func newSet(paths ...string) *results.ResultsSet {
	set := results.NewResultsSet()
	for i, p := range paths {
		set.Add(&diag.Diagnostic{Where: location.New(p, uint(i+1), 1), Tag: "t", Message: "m"})
	}
	return set
}

func TestFileKinds(t *testing.T) {
	for _, testCase := range [...]struct {
		path   string
		cc     bool
		header bool
	}{
		{path: "bdlt_date.cpp", cc: true},
		{path: "bdlt_date.t.cpp", cc: true},
		{path: "bdlt_date.h", header: true},
		{path: "foo.hpp", header: true},
		{path: "Makefile"},
		{path: "foo.cpp.orig"},
	} {
		t.Run(testCase.path, func(t *testing.T) {
			if IsCCFile(testCase.path) != testCase.cc {
				t.Errorf("IsCCFile(%v) = %v", testCase.path, !testCase.cc)
			}
			if IsHeaderFile(testCase.path) != testCase.header {
				t.Errorf("IsHeaderFile(%v) = %v", testCase.path, !testCase.header)
			}
		})
	}
}

func TestIgnoreResults(t *testing.T) {
	set := newSet("/src/output/gen.h", "/src/groups/bdl/bdlt/bdlt_date.h", "/src/third_party/x/y.cpp")
	n := IgnoreResults(set, []string{"/src/output/**", "**/third_party/**", "[bad"})
	if n != 2 || set.Len() != 1 {
		t.Fatalf("IgnoreResults dropped %d, left %d", n, set.Len())
	}
	if set.Results[0].Where.File != "/src/groups/bdl/bdlt/bdlt_date.h" {
		t.Errorf("unexpected result left: %v", set.Results[0])
	}
}

func TestDeleteExceedResults(t *testing.T) {
	set := newSet("a", "b", "c")
	set.Add(&diag.Diagnostic{Where: location.New("d", 1, 1), Tag: "other"})
	if n := DeleteExceedResults(set, map[string]int{"t": 2}); n != 1 {
		t.Errorf("DeleteExceedResults dropped %d, expected 1", n)
	}
	if set.Len() != 3 || set.Results[1].Where.File != "b" || set.Results[2].Tag != "other" {
		t.Errorf("unexpected results %v", set.Results)
	}
}

func TestDeleteResultsWithCertainSuffixs(t *testing.T) {
	suffixs := []string{".c"}
	set := newSet("notDeleteResult.cpp", "toDeleteResult.c")
	DeleteResultsWithCertainSuffixs(set, suffixs)
	for _, rtn := range set.Results {
		if filepath.Ext(rtn.Where.File) == ".c" {
			t.Errorf("found %v in returned results, which is expected to be deleted", rtn.Where.File)
		}
	}
	if set.Len() != 1 {
		t.Errorf("expected 1 result left, got %d", set.Len())
	}
}
