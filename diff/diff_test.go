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

package diff

import (
	"reflect"
	"testing"
)

const gitDiff = `diff --git a/groups/bdl/bdlt/bdlt_date.h b/groups/bdl/bdlt/bdlt_date.h
index 602565a30b39..9ff7b4d33b07 100644
--- a/groups/bdl/bdlt/bdlt_date.h
+++ b/groups/bdl/bdlt/bdlt_date.h
@@ -2,5 +2,6 @@ namespace bdlt {
 class Date {
--- old comment
+// new comment
+int d_serial;
 };
 
 }
diff --git a/README b/README
new file mode 100644
--- /dev/null
+++ b/README
@@ -0,0 +1 @@
+hello
\ No newline at end of file
diff --git a/gone.h b/gone.h
deleted file mode 100644
--- a/gone.h
+++ /dev/null
@@ -1 +0,0 @@
-bye
`

func TestParse(t *testing.T) {
	p, err := Parse(gitDiff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []*File{
		{
			OldName: "groups/bdl/bdlt/bdlt_date.h",
			NewName: "groups/bdl/bdlt/bdlt_date.h",
			Hunks:   []*Hunk{{OldPos: 2, OldLines: 5, NewPos: 2, NewLines: 6, Added: []int{3, 4}}},
		},
		{
			NewName: "README",
			Hunks:   []*Hunk{{OldPos: 0, OldLines: 0, NewPos: 1, NewLines: 1, Added: []int{1}}},
		},
		{
			OldName: "gone.h",
			Hunks:   []*Hunk{{OldPos: 1, OldLines: 1, NewPos: 0, NewLines: 0}},
		},
	}
	if !reflect.DeepEqual(p.Files, want) {
		for i, f := range p.Files {
			t.Logf("file %d: %+v", i, *f)
			for _, h := range f.Hunks {
				t.Logf("  hunk %+v", *h)
			}
		}
		t.Errorf("Parse() files mismatch")
	}
}

func TestParsePlainDiff(t *testing.T) {
	p, err := Parse("--- a.cpp\t2023-01-01 00:00:00\n+++ a.cpp\t2023-01-02 00:00:00\n@@ -1 +1,2 @@\n x\n+y\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Files) != 1 || p.Files[0].NewName != "a.cpp" || p.Files[0].OldName != "a.cpp" {
		t.Fatalf("unexpected files %+v", p.Files)
	}
	if got := p.Files[0].Hunks[0].Added; !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("Added = %v, want [2]", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := [...]string{
		"@@ -1 +1 @@\n",
		"+++ b/x\n",
		"--- a/x\n+++ b/x\n@@ -1 +1 @@\n?garbage\n",
		"--- a/x\n+++ b/x\n@@ -x +1 @@\n",
	}
	for _, tc := range tests {
		if _, err := Parse(tc); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", tc)
		}
	}
}

func TestIndex(t *testing.T) {
	p, err := Parse(gitDiff)
	if err != nil {
		t.Fatal(err)
	}
	idx := NewIndex(p)
	tests := [...]struct {
		file string
		line int
		want bool
	}{
		{"groups/bdl/bdlt/bdlt_date.h", 3, true},
		{"/home/u/bde/groups/bdl/bdlt/bdlt_date.h", 4, true},
		{"groups/bdl/bdlt/bdlt_date.h", 2, false},
		{"README", 1, true},
		{"gone.h", 1, false},
		{"other/bdlt_date.h", 3, false},
	}
	for _, tc := range tests {
		if got := idx.Added(tc.file, tc.line); got != tc.want {
			t.Errorf("Added(%q, %d) = %v, want %v", tc.file, tc.line, got, tc.want)
		}
	}
	if idx.Files() != 2 {
		t.Errorf("Files() = %d, want 2", idx.Files())
	}
	if !idx.Touched("x/README") || idx.Touched("gone.h") {
		t.Errorf("Touched mismatch")
	}
}

func TestFileHunks(t *testing.T) {
	p, err := Parse(gitDiff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	hunks := p.FileHunks("/src/groups/bdl/bdlt/bdlt_date.h")
	if len(hunks) != 1 || hunks[0].NewPos != 2 || hunks[0].NewLines != 6 {
		t.Errorf("unexpected hunks %+v", hunks)
	}
	if hunks := p.FileHunks("gone.h"); hunks != nil {
		t.Errorf("deleted file should have no hunks, got %+v", hunks)
	}
	if hunks := p.FileHunks("other.h"); hunks != nil {
		t.Errorf("untouched file should have no hunks, got %+v", hunks)
	}
}
