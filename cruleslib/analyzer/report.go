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

package analyzer

import (
	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/diag"
	"naive.systems/bdeverify/cruleslib/location"
)

type reportOptions struct {
	always   bool
	severity diag.Severity
}

type ReportOption func(*reportOptions)

// Always bypasses suppression and the report scope. It is meant for
// diagnostics about the tool's own input, such as malformed pragmas.
func Always() ReportOption {
	return func(o *reportOptions) {
		o.always = true
	}
}

func WithSeverity(s diag.Severity) ReportOption {
	return func(o *reportOptions) {
		o.severity = s
	}
}

// Report queues a diagnostic for tag at where. When the diagnostic is
// gated out the returned Builder is inert, so callers can add arguments
// unconditionally. The message may use %0-style placeholders for the
// arguments added through the Builder. Queued diagnostics are delivered at
// the end of the translation unit, after the gate is applied again with
// every in-source directive known.
func (a *Analyzer) Report(where location.Location, tag, code, msg string, opts ...ReportOption) *diag.Builder {
	o := reportOptions{severity: diag.Warning}
	for _, opt := range opts {
		opt(&o)
	}
	if resolved, err := a.sources.Resolve(where); err == nil {
		where = resolved
	}
	d := &diag.Diagnostic{
		Where:    where,
		Tag:      tag,
		Code:     code,
		Message:  msg,
		Severity: o.severity,
		Always:   o.always,
	}
	if !a.pass(d) {
		glog.V(2).Infof("analyzer: gated %s %s at %v", tag, code, where)
		return diag.Inert()
	}
	if a.done {
		a.deliver(d)
		return diag.NewBuilder(d)
	}
	a.pending = append(a.pending, d)
	return diag.NewBuilder(d)
}

// ReportNode reports at the location of n and highlights its range.
func (a *Analyzer) ReportNode(n *ast.Node, tag, code, msg string, opts ...ReportOption) *diag.Builder {
	b := a.Report(n.Location(), tag, code, msg, opts...)
	if n.Range.Valid() {
		b.Range(n.Range)
	}
	return b
}

// Suppressed reports whether tag is suppressed at where.
func (a *Analyzer) Suppressed(tag string, where location.Location) bool {
	return a.config.Suppressed(tag, where)
}

func (a *Analyzer) pass(d *diag.Diagnostic) bool {
	if d.Always {
		return true
	}
	if a.config.Suppressed(d.Tag, d.Where) {
		return false
	}
	if a.componentOnly && d.Where.IsValid() && !a.InScope(d.Where.File) {
		return false
	}
	if a.patch != nil && !a.patch.Added(d.Where.File, int(d.Where.Line)) {
		return false
	}
	return true
}

// InScope reports whether diagnostics in file belong to this translation
// unit: the toplevel file itself or a file of its component.
func (a *Analyzer) InScope(file string) bool {
	return file == a.Toplevel() || a.IsComponent(file)
}

func (a *Analyzer) flush() {
	pending := a.pending
	a.pending = nil
	var delivered []*diag.Diagnostic
	for _, d := range pending {
		if !a.pass(d) {
			glog.V(2).Infof("analyzer: gated %s %s at %v", d.Tag, d.Code, d.Where)
			continue
		}
		a.deliver(d)
		delivered = append(delivered, d)
	}
	if a.applyFixes {
		for _, d := range delivered {
			for _, f := range d.Fixes {
				a.ReplaceText(f.Range, f.Text)
			}
		}
	}
	// conflicts found while applying fixes
	for _, d := range a.pending {
		a.deliver(d)
	}
	a.pending = nil
}

func (a *Analyzer) deliver(d *diag.Diagnostic) {
	a.sink.Report(d)
}
