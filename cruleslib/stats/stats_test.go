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

package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"naive.systems/bdeverify/cruleslib/diag"
)

func TestSummarize(t *testing.T) {
	diags := []*diag.Diagnostic{
		{Tag: "long-lines", Severity: diag.Warning},
		{Tag: "long-lines", Severity: diag.Warning},
		{Tag: "pragma", Severity: diag.Error},
		{Tag: "rewrite", Severity: diag.Note},
	}
	got := Summarize(diags)
	want := Summary{
		Severity: SeverityCount{Error: 1, Warning: 2, Note: 1},
		Tags:     map[string]int{"long-lines": 2, "pragma": 1, "rewrite": 1},
		Failing:  3,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	CountSeverityAndWrite([]*diag.Diagnostic{{Tag: "x", Severity: diag.Remark}}, dir)
	b, err := os.ReadFile(filepath.Join(dir, "severity_stats.nsa_metadata"))
	if err != nil {
		t.Fatal(err)
	}
	var s Summary
	if err := json.Unmarshal(b, &s); err != nil {
		t.Fatal(err)
	}
	if s.Severity.Remark != 1 || s.Failing != 0 {
		t.Errorf("unexpected summary %+v", s)
	}

	WriteProgress(dir, AC, "50%", time.Now())
	if _, err := os.Stat(filepath.Join(dir, "progress.nsa_metadata")); err != nil {
		t.Errorf("progress not written: %v", err)
	}
	WriteProgress(filepath.Join(dir, "missing"), AC, "50%", time.Now())
	if _, err := os.Stat(filepath.Join(dir, "missing")); !os.IsNotExist(err) {
		t.Errorf("progress written to a missing result dir")
	}
}
