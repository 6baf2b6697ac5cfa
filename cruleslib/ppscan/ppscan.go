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

// Package ppscan drives a ppobserver.Observer from raw source files. It is
// a light scanner, not a preprocessor: it sees comments, directives and
// identifiers that name defined macros, follows #include through the given
// search paths and honours include guards and #pragma once. Conditions are
// not evaluated, except that "#if 0" and "#if 1" blocks are recognized.
package ppscan

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/ppobserver"
	"naive.systems/bdeverify/cruleslib/source"
)

const defaultMaxDepth = 200

var (
	directiveRE = regexp.MustCompile(`(?s)^#\s*([A-Za-z_]\w*)?\s*(.*?)\s*$`)
	includeRE   = regexp.MustCompile(`^([<"])([^>"]+)[>"]`)
	defineRE    = regexp.MustCompile(`(?s)^([A-Za-z_]\w*)(\([^)]*\))?\s*(.*)$`)
	definedRE   = regexp.MustCompile(`\bdefined\s*\(?\s*([A-Za-z_]\w*)`)
	wordRE      = regexp.MustCompile(`^[A-Za-z_]\w*`)
)

type Scanner struct {
	Sources     *source.Manager
	IncludeDirs []string
	SystemDirs  []string
	// MaxDepth bounds include nesting; zero means a default of 200.
	MaxDepth int
}

type scan struct {
	sc      *Scanner
	obs     *ppobserver.Observer
	defined map[string]bool
	guards  map[string]string
	once    map[string]bool
	missing map[string]bool
}

// Scan feeds main and the files it includes to o, then signals the end of
// the main file.
func (sc *Scanner) Scan(main string, o *ppobserver.Observer) error {
	if sc.Sources == nil {
		sc.Sources = source.NewManager()
	}
	f, err := sc.Sources.Load(main)
	if err != nil {
		return fmt.Errorf("ppscan: %v", err)
	}
	s := &scan{
		sc:      sc,
		obs:     o,
		defined: make(map[string]bool),
		guards:  make(map[string]string),
		once:    make(map[string]bool),
		missing: make(map[string]bool),
	}
	o.FileChanged(location.New(main, 1, 1), ppobserver.EnterFile, ppobserver.UserFile, location.Invalid)
	s.file(f, 0)
	o.EndOfMainFile()
	return nil
}

func rng(f *source.File, i, j int) location.Range {
	return location.NewRange(f.Position(i), f.Position(j))
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdent(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func (s *scan) file(f *source.File, depth int) {
	c := f.Content
	lineStart := true
	// 0: the first directive may open a guard, 1: expecting its #define,
	// 2: no guard detection any more.
	guardState := 0
	guard := ""
	for i := 0; i < len(c); {
		b := c[i]
		switch {
		case b == '\n':
			lineStart = true
			i++
		case b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v':
			i++
		case b == '\\' && i+1 < len(c) && c[i+1] == '\n':
			i += 2
		case b == '/' && i+1 < len(c) && c[i+1] == '/':
			j := lineCommentEnd(c, i)
			s.obs.Comment(rng(f, i, j), string(c[i:j]))
			i = j
		case b == '/' && i+1 < len(c) && c[i+1] == '*':
			j := len(c)
			if k := bytes.Index(c[i+2:], []byte("*/")); k >= 0 {
				j = i + 2 + k + 2
			}
			s.obs.Comment(rng(f, i, j), string(c[i:j]))
			i = j
		case b == '#' && lineStart:
			j := directiveEnd(c, i)
			name, arg, next := s.directive(f, i, j, depth)
			switch {
			case guardState == 0 && name == "ifndef":
				guard, guardState = arg, 1
			case guardState == 1 && name == "define" && firstWord(arg) == guard:
				s.guards[f.Name] = guard
				guardState = 2
			default:
				guardState = 2
			}
			lineStart = next != j
			i = next
		case b == '"' || b == '\'':
			i = skipQuoted(c, i)
			lineStart = false
		case isIdentStart(b):
			j := i
			for j < len(c) && isIdent(c[j]) {
				j++
			}
			word := string(c[i:j])
			if j < len(c) && c[j] == '"' && strings.HasSuffix(word, "R") && len(word) <= 3 {
				i = skipRaw(c, j)
				lineStart = false
				continue
			}
			if s.defined[word] {
				s.obs.MacroExpands(ppobserver.Macro{Name: word, Where: f.Position(i), Range: rng(f, i, j)})
			}
			lineStart = false
			i = j
		default:
			lineStart = false
			i++
		}
	}
}

func firstWord(s string) string {
	return wordRE.FindString(s)
}

func lineCommentEnd(c []byte, i int) int {
	for j := i; j < len(c); j++ {
		if c[j] == '\n' && (j == 0 || c[j-1] != '\\') {
			return j
		}
	}
	return len(c)
}

// directiveEnd returns the end of the logical directive line starting at i.
// A comment ends the directive text; it is scanned as a comment afterwards.
func directiveEnd(c []byte, i int) int {
	j := i + 1
	for j < len(c) {
		switch {
		case c[j] == '\\' && j+1 < len(c) && c[j+1] == '\n':
			j += 2
		case c[j] == '\\' && j+2 < len(c) && c[j+1] == '\r' && c[j+2] == '\n':
			j += 3
		case c[j] == '\n':
			return j
		case c[j] == '/' && j+1 < len(c) && (c[j+1] == '/' || c[j+1] == '*'):
			return j
		case c[j] == '"':
			k := j + 1
			for k < len(c) && c[k] != '"' && c[k] != '\n' {
				if c[k] == '\\' {
					k++
				}
				k++
			}
			if k < len(c) && c[k] == '"' {
				k++
			}
			j = k
		default:
			j++
		}
	}
	return len(c)
}

func skipQuoted(c []byte, i int) int {
	q := c[i]
	j := i + 1
	for j < len(c) && c[j] != q && c[j] != '\n' {
		if c[j] == '\\' {
			j++
		}
		j++
	}
	if j < len(c) && c[j] == q {
		j++
	}
	return j
}

// skipRaw skips a raw string literal whose opening quote is at i.
func skipRaw(c []byte, i int) int {
	open := bytes.IndexByte(c[i:], '(')
	if open < 0 {
		return skipQuoted(c, i)
	}
	delim := ")" + string(c[i+1:i+open]) + `"`
	end := bytes.Index(c[i+open:], []byte(delim))
	if end < 0 {
		return len(c)
	}
	return i + open + end + len(delim)
}

// directive handles the directive text c[i:j] and returns its name, its
// argument text and the offset to continue scanning from.
func (s *scan) directive(f *source.File, i, j, depth int) (string, string, int) {
	text := string(f.Content[i:j])
	m := directiveRE.FindStringSubmatch(strings.ReplaceAll(text, "\\\n", " "))
	if m == nil {
		return "", "", j
	}
	name, arg := m[1], m[2]
	where := f.Position(i)
	r := rng(f, i, j)
	argRange := r
	if k := strings.Index(text, arg); arg != "" && k >= 0 {
		argRange = rng(f, i+k, i+k+len(arg))
	}
	o := s.obs
	next := j
	switch name {
	case "include", "include_next", "import":
		s.include(f, where, r, text, arg, j, depth)
	case "define":
		if dm := defineRE.FindStringSubmatch(arg); dm != nil {
			s.defined[dm[1]] = true
			macro := ppobserver.Macro{Name: dm[1], Where: where, Range: r, Definition: dm[3]}
			if dm[2] != "" {
				macro.Args = splitParams(dm[2])
			}
			o.MacroDefined(macro)
		}
	case "undef":
		if w := firstWord(arg); w != "" {
			delete(s.defined, w)
			o.MacroUndefined(ppobserver.Macro{Name: w, Where: where, Range: r})
		}
	case "if":
		s.definedRefs(f, i, text)
		cond := ppobserver.Conditional{Where: where, Condition: argRange, Text: arg}
		switch arg {
		case "0":
			cond.Value = ppobserver.False
			o.If(cond)
			if k := skipFalseBlock(f.Content, j); k > j {
				o.SourceRangeSkipped(rng(f, j, k))
				next = k
			}
		case "1":
			cond.Value = ppobserver.True
			o.If(cond)
		default:
			o.If(cond)
		}
	case "elif":
		s.definedRefs(f, i, text)
		o.Elif(ppobserver.Conditional{Where: where, Condition: argRange, Text: arg})
	case "ifdef":
		o.Ifdef(ppobserver.Conditional{Where: where, Condition: argRange, Text: arg})
	case "ifndef":
		o.Ifndef(ppobserver.Conditional{Where: where, Condition: argRange, Text: arg})
	case "else":
		o.Else(ppobserver.Conditional{Where: where})
	case "endif":
		o.Endif(ppobserver.Conditional{Where: where})
	case "pragma":
		if firstWord(arg) == "once" {
			s.once[f.Name] = true
		}
		o.PragmaDirective(r, text)
	case "ident":
		o.Ident(where, arg)
	}
	return name, arg, next
}

func splitParams(p string) []string {
	p = strings.TrimSuffix(strings.TrimPrefix(p, "("), ")")
	var out []string
	for _, a := range strings.Split(p, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (s *scan) definedRefs(f *source.File, i int, text string) {
	for _, m := range definedRE.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		s.obs.Defined(ppobserver.Macro{Name: name, Where: f.Position(i + m[2]), Range: rng(f, i+m[2], i+m[3])})
	}
}

// skipFalseBlock returns the start of the line holding the #elif, #else or
// #endif that ends the block beginning at j.
func skipFalseBlock(c []byte, j int) int {
	depth := 0
	for pos := j; pos < len(c); {
		end := bytes.IndexByte(c[pos:], '\n')
		lineEnd := len(c)
		if end >= 0 {
			lineEnd = pos + end
		}
		line := strings.TrimSpace(string(c[pos:lineEnd]))
		if strings.HasPrefix(line, "#") {
			switch firstWord(strings.TrimSpace(line[1:])) {
			case "if", "ifdef", "ifndef":
				depth++
			case "endif":
				if depth == 0 {
					return pos
				}
				depth--
			case "else", "elif":
				if depth == 0 {
					return pos
				}
			}
		}
		if end < 0 {
			break
		}
		pos = lineEnd + 1
	}
	return len(c)
}

func (s *scan) include(f *source.File, where location.Location, r location.Range, text, arg string, j, depth int) {
	o := s.obs
	im := includeRE.FindStringSubmatch(arg)
	if im == nil {
		glog.V(1).Infof("ppscan: unparsed include at %v: %q", where, text)
		return
	}
	angled := im[1] == "<"
	name := im[2]
	resolved, kind, ok := s.resolve(name, angled, f.Name)
	o.InclusionDirective(ppobserver.Inclusion{Where: where, Range: r, Name: name, Angled: angled, Resolved: resolved})
	if !ok {
		if !s.missing[name] {
			s.missing[name] = true
			glog.Warningf("ppscan: %v: cannot find %s", where, name)
		}
		return
	}
	if s.once[resolved] || (s.guards[resolved] != "" && s.defined[s.guards[resolved]]) {
		o.FileSkipped(where, text, kind)
		return
	}
	limit := s.sc.MaxDepth
	if limit == 0 {
		limit = defaultMaxDepth
	}
	if depth+1 > limit {
		glog.Warningf("ppscan: %v: include depth exceeds %d", where, limit)
		return
	}
	inc, err := s.sc.Sources.Load(resolved)
	if err != nil {
		glog.Warningf("ppscan: %v", err)
		return
	}
	o.FileChanged(location.New(resolved, 1, 1), ppobserver.EnterFile, kind, where)
	s.file(inc, depth+1)
	o.FileChanged(f.Position(j), ppobserver.ExitFile, kind, location.Invalid)
}

func (s *scan) resolve(name string, angled bool, from string) (string, ppobserver.FileKind, bool) {
	type candidate struct {
		dir  string
		kind ppobserver.FileKind
	}
	var cands []candidate
	if filepath.IsAbs(name) {
		cands = append(cands, candidate{"", ppobserver.UserFile})
	} else {
		if !angled {
			cands = append(cands, candidate{filepath.Dir(from), ppobserver.UserFile})
		}
		for _, d := range s.sc.IncludeDirs {
			cands = append(cands, candidate{d, ppobserver.UserFile})
		}
		for _, d := range s.sc.SystemDirs {
			cands = append(cands, candidate{d, ppobserver.SystemFile})
		}
	}
	for _, c := range cands {
		p := name
		if c.dir != "" {
			p = filepath.Join(c.dir, name)
		}
		if _, ok := s.sc.Sources.Get(p); ok {
			return p, c.kind, true
		}
		if _, err := s.sc.Sources.Load(p); err == nil {
			return p, c.kind, true
		}
	}
	return "", ppobserver.UserFile, false
}
