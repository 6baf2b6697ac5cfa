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

// Package includeguard checks that component headers are guarded by
// INCLUDED_<COMPONENT>.
package includeguard

import (
	"strings"

	"naive.systems/bdeverify/cruleslib/analyzer"
	"naive.systems/bdeverify/cruleslib/checks"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/ppobserver"
)

const Tag = "include-guard"

var Check = checks.Check{
	Tag:         Tag,
	Description: "component headers start with an #ifndef/#define INCLUDED_<COMPONENT> guard",
	Attach:      attach,
}

type header struct {
	// opened is set once the first directive of the header has been seen.
	opened bool
	guard  string
	// defining is set between the guard #ifndef and the next directive.
	defining bool
}

type guards struct {
	a       *analyzer.Analyzer
	headers map[string]*header
	order   []string
}

func (g *guards) Attach(a *analyzer.Analyzer) {
	g.a = a
	g.headers = make(map[string]*header)
}

// Expected returns the guard macro of component.
func Expected(component string) string {
	return "INCLUDED_" + strings.ToUpper(component)
}

func attach(a *analyzer.Analyzer) {
	g := analyzer.Attachment[guards](a)
	pp := a.PP()
	pp.OnFileChanged.Subscribe(func(fc ppobserver.FileChange) {
		if fc.Reason != ppobserver.EnterFile || !a.IsComponentHeader(fc.File) {
			return
		}
		if _, ok := g.headers[fc.File]; !ok {
			g.headers[fc.File] = &header{}
			g.order = append(g.order, fc.File)
		}
	})
	other := func(where location.Location) {
		h := g.headers[where.File]
		if h == nil {
			return
		}
		if !h.opened {
			g.unguarded(where, h)
			return
		}
		if h.defining {
			h.defining = false
			a.Report(where, Tag, "IG02", "Include guard %0 is not defined right after its #ifndef").Arg(h.guard)
		}
	}
	pp.OnIfndef.Subscribe(func(c ppobserver.Conditional) {
		if h := g.headers[c.Where.File]; h != nil && h.opened {
			other(c.Where)
			return
		}
		h := g.first(c.Where)
		if h == nil {
			return
		}
		h.guard = strings.TrimSpace(c.Text)
		h.defining = true
		if want := Expected(a.Component()); h.guard != want {
			a.Report(c.Where, Tag, "IG01", "Include guard should be %0, not %1").
				Args(want, h.guard).
				Fix(c.Condition, want)
		}
	})
	pp.OnMacroDefined.Subscribe(func(m ppobserver.Macro) {
		h := g.headers[m.Where.File]
		if h == nil {
			return
		}
		if !h.opened {
			g.unguarded(m.Where, h)
			return
		}
		if h.defining {
			h.defining = false
			if m.Name != h.guard {
				a.Report(m.Where, Tag, "IG02", "Include guard %0 is not defined; #define of %1 follows the #ifndef").
					Args(h.guard, m.Name)
			}
		}
	})
	conditional := func(c ppobserver.Conditional) { other(c.Where) }
	pp.OnIf.Subscribe(conditional)
	pp.OnIfdef.Subscribe(conditional)
	pp.OnInclusion.Subscribe(func(inc ppobserver.Inclusion) { other(inc.Where) })
	a.OnTranslationUnitDone.Subscribe(func(a *analyzer.Analyzer) {
		for _, file := range g.order {
			if h := g.headers[file]; !h.opened {
				g.unguarded(location.New(file, 1, 1), h)
			}
		}
	})
}

// first returns the state of the header where is in if where is the first
// directive of that header.
func (g *guards) first(where location.Location) *header {
	h := g.headers[where.File]
	if h == nil || h.opened {
		return nil
	}
	h.opened = true
	return h
}

func (g *guards) unguarded(where location.Location, h *header) {
	h.opened = true
	g.a.Report(where, Tag, "IG01", "Header lacks include guard %0").Arg(Expected(g.a.Component()))
}
