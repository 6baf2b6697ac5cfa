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

package results

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"naive.systems/bdeverify/atomic"
	"naive.systems/bdeverify/cruleslib/diag"
	"naive.systems/bdeverify/cruleslib/location"
)

type resultBlood struct {
	where location.Location
	tag   string
	code  string
	text  string
}

// ResultsSet collects diagnostics. When Add() is called, it checks
// resultBlood to identify unique diagnostics. It preserves adding order.
// A ResultsSet is a diag.Sink and is safe for concurrent use.
type ResultsSet struct {
	mu      sync.Mutex
	Results []*diag.Diagnostic
	stored  map[resultBlood]struct{}
}

func NewResultsSet() *ResultsSet {
	set := ResultsSet{}
	set.stored = make(map[resultBlood]struct{})
	return &set
}

func NewResultsSetFromList(list []*diag.Diagnostic) *ResultsSet {
	set := NewResultsSet()
	set.AddList(list)
	return set
}

func bloodOf(d *diag.Diagnostic) resultBlood {
	return resultBlood{where: d.Where.Key(), tag: d.Tag, code: d.Code, text: d.Text()}
}

// Add stores d unless an identical diagnostic was added before. It reports
// whether d was stored.
func (rs *ResultsSet) Add(d *diag.Diagnostic) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	blood := bloodOf(d)
	if _, reported := rs.stored[blood]; reported {
		return false
	}
	rs.stored[blood] = struct{}{}
	rs.Results = append(rs.Results, d)
	return true
}

func (rs *ResultsSet) AddList(list []*diag.Diagnostic) {
	for _, d := range list {
		rs.Add(d)
	}
}

func (rs *ResultsSet) Report(d *diag.Diagnostic) {
	rs.Add(d)
}

func (rs *ResultsSet) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.Results)
}

// Filter keeps the diagnostics keep returns true for.
func (rs *ResultsSet) Filter(keep func(d *diag.Diagnostic) bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	kept := rs.Results[:0]
	for _, d := range rs.Results {
		if keep(d) {
			kept = append(kept, d)
			continue
		}
		delete(rs.stored, bloodOf(d))
	}
	rs.Results = kept
}

// AddID assigns a random ID to every diagnostic that has none.
func (rs *ResultsSet) AddID() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, d := range rs.Results {
		if d.ID != "" {
			continue
		}
		id, err := uuid.NewRandom()
		if err != nil {
			glog.Warningf("uuid.NewRandom: %v", err)
			continue
		}
		d.ID = id.String()
	}
}

// Sort orders the diagnostics by location, then tag and text.
func (rs *ResultsSet) Sort() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	sort.SliceStable(rs.Results, func(i, j int) bool {
		x := rs.Results[i]
		y := rs.Results[j]
		if c := location.Compare(x.Where, y.Where); c != 0 {
			return c < 0
		}
		if x.Tag != y.Tag {
			return x.Tag < y.Tag
		}
		return x.Text() < y.Text()
	})
}

// Print writes every diagnostic in order. When printCounts is set a count
// per tag follows.
func (rs *ResultsSet) Print(w io.Writer, printCounts bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	counts := map[string]int{}
	for _, d := range rs.Results {
		fmt.Fprintf(w, "%s\n", d)
		counts[d.Tag]++
	}
	if !printCounts {
		return
	}
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	for _, tag := range tags {
		fmt.Fprintf(w, "count: %d tag: %s\n", counts[tag], tag)
	}
}

// Failing counts the diagnostics whose severity fails a run.
func (rs *ResultsSet) Failing(warningsAsErrors bool) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	n := 0
	for _, d := range rs.Results {
		if d.Severity == diag.Error || (warningsAsErrors && d.Severity.Failing()) {
			n++
		}
	}
	return n
}

func rangeValue(r location.Range) map[string]any {
	return map[string]any{
		"path":        r.From.File,
		"from_line":   r.From.Line,
		"from_column": r.From.Column,
		"to_line":     r.To.Line,
		"to_column":   r.To.Column,
	}
}

func diagnosticValue(d *diag.Diagnostic) map[string]any {
	v := map[string]any{
		"path":     d.Where.File,
		"line":     d.Where.Line,
		"column":   d.Where.Column,
		"severity": d.Severity.String(),
		"tag":      d.Tag,
		"message":  d.Text(),
	}
	if d.ID != "" {
		v["id"] = d.ID
	}
	if d.Code != "" {
		v["code"] = d.Code
	}
	if d.Always {
		v["always"] = true
	}
	if len(d.Ranges) > 0 {
		ranges := make([]any, 0, len(d.Ranges))
		for _, r := range d.Ranges {
			ranges = append(ranges, rangeValue(r))
		}
		v["ranges"] = ranges
	}
	if len(d.Fixes) > 0 {
		fixes := make([]any, 0, len(d.Fixes))
		for _, f := range d.Fixes {
			fixes = append(fixes, map[string]any{"range": rangeValue(f.Range), "text": f.Text})
		}
		v["fixes"] = fixes
	}
	if len(d.Notes) > 0 {
		notes := make([]any, 0, len(d.Notes))
		for _, n := range d.Notes {
			notes = append(notes, diagnosticValue(n))
		}
		v["notes"] = notes
	}
	return v
}

// ToStruct converts the diagnostics into a protobuf Struct of the form
// {"results": [...]}.
func (rs *ResultsSet) ToStruct() (*structpb.Struct, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	items := make([]any, 0, len(rs.Results))
	for _, d := range rs.Results {
		items = append(items, diagnosticValue(d))
	}
	s, err := structpb.NewStruct(map[string]any{"results": items})
	if err != nil {
		return nil, fmt.Errorf("structpb.NewStruct: %v", err)
	}
	return s, nil
}

func (rs *ResultsSet) MarshalJSON() ([]byte, error) {
	s, err := rs.ToStruct()
	if err != nil {
		return nil, err
	}
	out, err := protojson.MarshalOptions{Indent: ""}.Marshal(s)
	if err != nil {
		return nil, err
	}
	// protojson output is deliberately unstable, so indent it ourselves
	var rawMessage json.RawMessage = out
	return json.MarshalIndent(rawMessage, "", "  ")
}

func (rs *ResultsSet) WriteJSON(resultsPath string) error {
	out, err := rs.MarshalJSON()
	if err != nil {
		return err
	}
	return atomic.Write(resultsPath, out)
}

func ReadJSON(resultsPath string) ([]*diag.Diagnostic, error) {
	content, err := os.ReadFile(resultsPath)
	if err != nil {
		return nil, err
	}
	return UnmarshalJSON(content)
}

// UnmarshalJSON decodes what MarshalJSON produced. Message arguments are
// already substituted, so the decoded messages are escaped to format as
// themselves.
func UnmarshalJSON(content []byte) ([]*diag.Diagnostic, error) {
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(content, s); err != nil {
		return nil, fmt.Errorf("protojson.Unmarshal: %v", err)
	}
	list := s.GetFields()["results"].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("missing results list")
	}
	var diags []*diag.Diagnostic
	for i, v := range list.GetValues() {
		d, err := diagnosticFromStruct(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("result %d: %v", i, err)
		}
		diags = append(diags, d)
	}
	return diags, nil
}

func uintField(s *structpb.Struct, name string) uint {
	n := s.GetFields()[name].GetNumberValue()
	if n < 0 {
		return 0
	}
	return uint(n)
}

func rangeFromStruct(s *structpb.Struct) location.Range {
	file := s.GetFields()["path"].GetStringValue()
	return location.NewRange(
		location.New(file, uintField(s, "from_line"), uintField(s, "from_column")),
		location.New(file, uintField(s, "to_line"), uintField(s, "to_column")))
}

func diagnosticFromStruct(s *structpb.Struct) (*diag.Diagnostic, error) {
	if s == nil {
		return nil, fmt.Errorf("not an object")
	}
	fields := s.GetFields()
	sev, err := diag.ParseSeverity(fields["severity"].GetStringValue())
	if err != nil {
		return nil, err
	}
	d := &diag.Diagnostic{
		ID:       fields["id"].GetStringValue(),
		Where:    location.New(fields["path"].GetStringValue(), uintField(s, "line"), uintField(s, "column")),
		Tag:      fields["tag"].GetStringValue(),
		Code:     fields["code"].GetStringValue(),
		Message:  strings.ReplaceAll(fields["message"].GetStringValue(), "%", "%%"),
		Severity: sev,
		Always:   fields["always"].GetBoolValue(),
	}
	for _, r := range fields["ranges"].GetListValue().GetValues() {
		d.Ranges = append(d.Ranges, rangeFromStruct(r.GetStructValue()))
	}
	for _, f := range fields["fixes"].GetListValue().GetValues() {
		fs := f.GetStructValue()
		d.Fixes = append(d.Fixes, diag.FixIt{
			Range: rangeFromStruct(fs.GetFields()["range"].GetStructValue()),
			Text:  fs.GetFields()["text"].GetStringValue(),
		})
	}
	for _, n := range fields["notes"].GetListValue().GetValues() {
		note, err := diagnosticFromStruct(n.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("note: %v", err)
		}
		d.Notes = append(d.Notes, note)
	}
	return d, nil
}
