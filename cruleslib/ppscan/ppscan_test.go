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

package ppscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naive.systems/bdeverify/cruleslib/config"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/ppobserver"
	"naive.systems/bdeverify/cruleslib/source"
)

const mainSrc = `// BDE_VERIFY pragma: push
#include "a.h"
#include <a.h>
#include <sys.h>
#include "missing.h"
#define TWICE(x) ((x) * 2)
int v = TWICE(1); /* tail */
#if 0
#include "never.h"
#endif
#pragma bde_verify pop
`

const headerSrc = `#ifndef INCLUDED_A
#define INCLUDED_A
#pragma bde_verify -long-lines
const char *s = "TWICE // not a comment";
#endif
`

type recorder struct {
	files     []string
	skipped   []string
	includes  []string
	comments  []string
	defines   []ppobserver.Macro
	expands   []location.Location
	skips     []location.Range
	ifValues  []ppobserver.ConditionValue
	endOfMain string
}

func record(o *ppobserver.Observer) *recorder {
	r := &recorder{}
	o.OnFileChanged.Subscribe(func(fc ppobserver.FileChange) {
		tag := "enter "
		if fc.Reason == ppobserver.ExitFile {
			tag = "exit "
		}
		r.files = append(r.files, tag+fc.File)
	})
	o.OnFileSkipped.Subscribe(func(s ppobserver.FileSkip) { r.skipped = append(r.skipped, s.Header) })
	o.OnInclusion.Subscribe(func(i ppobserver.Inclusion) { r.includes = append(r.includes, i.Name+"="+i.Resolved) })
	o.OnComment.Subscribe(func(c ppobserver.Comment) { r.comments = append(r.comments, c.Text) })
	o.OnMacroDefined.Subscribe(func(m ppobserver.Macro) { r.defines = append(r.defines, m) })
	o.OnMacroExpands.Subscribe(func(m ppobserver.Macro) { r.expands = append(r.expands, m.Where.Key()) })
	o.OnSourceRangeSkipped.Subscribe(func(rg location.Range) { r.skips = append(r.skips, rg) })
	o.OnIf.Subscribe(func(c ppobserver.Conditional) { r.ifValues = append(r.ifValues, c.Value) })
	o.OnEndOfMainFile.Subscribe(func(f string) { r.endOfMain = f })
	return r
}

func TestScan(t *testing.T) {
	sm := source.NewManager()
	sm.Add("/src/a.cpp", []byte(mainSrc))
	sm.Add("/src/a.h", []byte(headerSrc))
	sm.Add("/sys/sys.h", []byte("#pragma once\n"))

	cfg := config.New()
	o := ppobserver.New(cfg, sm)
	r := record(o)
	sc := &Scanner{Sources: sm, IncludeDirs: []string{"/src"}, SystemDirs: []string{"/sys"}}
	require.NoError(t, sc.Scan("/src/a.cpp", o))

	assert.Equal(t, []string{
		"enter /src/a.cpp",
		"enter /src/a.h",
		"exit /src/a.cpp",
		"enter /sys/sys.h",
		"exit /src/a.cpp",
	}, r.files)
	assert.Equal(t, []string{"a.h"}, r.skipped)
	assert.Equal(t, []string{"a.h=/src/a.h", "a.h=/src/a.h", "sys.h=/sys/sys.h", "missing.h="}, r.includes)
	assert.Equal(t, []string{"// BDE_VERIFY pragma: push", "/* tail */"}, r.comments)
	require.Len(t, r.defines, 2)
	assert.Equal(t, "INCLUDED_A", r.defines[0].Name)
	assert.Equal(t, "TWICE", r.defines[1].Name)
	assert.Equal(t, []string{"x"}, r.defines[1].Args)
	assert.Equal(t, "((x) * 2)", r.defines[1].Definition)
	assert.Equal(t, []location.Location{location.New("/src/a.cpp", 7, 9)}, r.expands)
	assert.Equal(t, []ppobserver.ConditionValue{ppobserver.False}, r.ifValues)
	require.Len(t, r.skips, 1)
	assert.Equal(t, uint(8), r.skips[0].From.Line)
	assert.Equal(t, uint(10), r.skips[0].To.Line)
	assert.Equal(t, "/src/a.cpp", r.endOfMain)

	assert.True(t, o.IsSystem("/sys/sys.h"))
	assert.True(t, cfg.Suppressed("long-lines", location.New("/src/a.h", 4, 1)))
	assert.False(t, cfg.Suppressed("long-lines", location.New("/src/a.cpp", 4, 1)))
	assert.Empty(t, cfg.CheckStack())
}

func TestScanDefinedAndContinuation(t *testing.T) {
	sm := source.NewManager()
	sm.Add("m.cpp", []byte("#if defined(A) && \\\n    defined B\n#endif\n#pragma bde_verify push // open\n"))
	cfg := config.New()
	o := ppobserver.New(cfg, sm)
	var names []string
	o.OnDefined.Subscribe(func(m ppobserver.Macro) { names = append(names, m.Name) })
	var comments []string
	o.OnComment.Subscribe(func(c ppobserver.Comment) { comments = append(comments, c.Text) })
	require.NoError(t, (&Scanner{Sources: sm}).Scan("m.cpp", o))
	assert.Equal(t, []string{"A", "B"}, names)
	assert.Equal(t, []string{"// open"}, comments)
	defects := cfg.CheckStack()
	require.Len(t, defects, 1)
	assert.Equal(t, config.UnclosedPush, defects[0].Kind)
	assert.Equal(t, uint(4), defects[0].Where.Line)
}

func TestScanMissingMain(t *testing.T) {
	o := ppobserver.New(nil, nil)
	assert.Error(t, (&Scanner{}).Scan("/does/not/exist.cpp", o))
}
