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

// Package testlib runs checks over in-memory translation units for tests.
package testlib

import (
	"fmt"
	"path/filepath"
	"sort"

	"naive.systems/bdeverify/cruleslib/analyzer"
	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/checks"
	"naive.systems/bdeverify/cruleslib/config"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/ppscan"
	"naive.systems/bdeverify/cruleslib/results"
	"naive.systems/bdeverify/cruleslib/source"
)

// Unit is a translation unit whose files live in memory.
type Unit struct {
	// Files maps paths to contents. Main must be one of them.
	Files map[string]string
	Main  string
	// Config lines processed before the checks attach.
	Config []string
	// Tree is visited after the preprocessor pass; it may be nil.
	Tree        *ast.Node
	IncludeDirs []string
	Options     []analyzer.Option
}

type Run struct {
	Analyzer *analyzer.Analyzer
	Results  *results.ResultsSet
}

// RunChecks attaches cs to a fresh Analyzer, scans u and visits its tree.
func RunChecks(u Unit, cs ...checks.Check) (*Run, error) {
	sources := source.NewManager()
	for name, content := range u.Files {
		sources.Add(name, []byte(content))
	}
	cfg := config.New()
	for _, line := range u.Config {
		cfg.Process(line)
	}
	set := results.NewResultsSet()
	opts := []analyzer.Option{analyzer.WithConfig(cfg), analyzer.WithSources(sources), analyzer.WithSink(set)}
	a := analyzer.New(append(opts, u.Options...)...)

	registry := checks.NewRegistry()
	for _, c := range cs {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	registry.Attach(a)

	sc := ppscan.Scanner{Sources: sources, IncludeDirs: u.IncludeDirs}
	if err := sc.Scan(u.Main, a.PP()); err != nil {
		return nil, err
	}
	a.HandleTranslationUnit(u.Tree)
	return &Run{Analyzer: a, Results: set}, nil
}

// ToTestResult renders the results as "file:line:col CODE text" lines with
// base file names, sorted.
func ToTestResult(set *results.ResultsSet) []string {
	var out []string
	for _, d := range set.Results {
		out = append(out, fmt.Sprintf("%s:%d:%d %s %s", filepath.Base(d.Where.File), d.Where.Line, d.Where.Column, d.Code, d.Text()))
	}
	sort.Strings(out)
	return out
}

// Rewritten returns the contents of file after the fixes of the run.
func (r *Run) Rewritten(file string) (string, error) {
	content, err := r.Analyzer.Rewriter().Contents(file)
	return string(content), err
}

// Node builds a tree node at file:line:col whose range covers width
// characters of that line.
func Node(kind ast.Kind, name string, at location.Location, width uint, kids ...*ast.Node) *ast.Node {
	return &ast.Node{
		Kind:     kind,
		Name:     name,
		Loc:      at,
		Range:    location.NewRange(at, location.New(at.File, at.Line, at.Column+width)),
		Children: kids,
	}
}

// TU wraps decls in a translation unit node.
func TU(decls ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.TranslationUnitDecl, Children: decls}
}
