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

// Package clangjson reads the output of `clang -Xclang -ast-dump=json` into
// an ast.Node tree.
//
// Clang elides the file and line of a location when they repeat the
// previously printed location, so the decoder walks nodes in document order
// and carries the last seen file and line along.
package clangjson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/safecast"
	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/location"
)

type bareLoc struct {
	Offset *int   `json:"offset"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Col    int    `json:"col"`
	TokLen int    `json:"tokLen"`
	// includedFrom names the includer but does not move the elision state.
	IncludedFrom *bareLoc `json:"includedFrom"`
	IsMacroArg   bool     `json:"isMacroArgExpansion"`
}

type jsonLoc struct {
	bareLoc
	SpellingLoc  *bareLoc `json:"spellingLoc"`
	ExpansionLoc *bareLoc `json:"expansionLoc"`
}

type jsonRange struct {
	Begin jsonLoc `json:"begin"`
	End   jsonLoc `json:"end"`
}

type jsonType struct {
	QualType string `json:"qualType"`
}

type jsonNode struct {
	ID                 string      `json:"id"`
	Kind               string      `json:"kind"`
	Loc                *jsonLoc    `json:"loc"`
	Range              *jsonRange  `json:"range"`
	Name               string      `json:"name"`
	IsImplicit         bool        `json:"isImplicit"`
	TagUsed            string      `json:"tagUsed"`
	StorageClass       string      `json:"storageClass"`
	Opcode             string      `json:"opcode"`
	CastKind           string      `json:"castKind"`
	Value              any         `json:"value"`
	Language           string      `json:"language"`
	Access             string      `json:"access"`
	Type               *jsonType   `json:"type"`
	CompleteDefinition bool        `json:"completeDefinition"`
	IsInline           bool        `json:"inline"`
	NominatedNamespace *jsonNode   `json:"nominatedNamespace"`
	Inner              []*jsonNode `json:"inner"`
}

type decoder struct {
	lastFile string
	lastLine int
	nextID   int
	// Nodes from files other than the ones accepted by keep are dropped
	// together with their subtrees, except for the translation unit root.
	keep func(file string) bool
}

// Option configures Decode.
type Option func(*decoder)

// KeepFiles restricts the tree to top-level declarations whose location is
// in a file accepted by keep.
func KeepFiles(keep func(file string) bool) Option {
	return func(d *decoder) { d.keep = keep }
}

func Decode(r io.Reader, opts ...Option) (*ast.Node, error) {
	var root jsonNode
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("clangjson: decode: %v", err)
	}
	if root.Kind == "" {
		return nil, fmt.Errorf("clangjson: missing node kind at root")
	}
	d := &decoder{}
	for _, o := range opts {
		o(d)
	}
	n := d.convert(&root, true)
	glog.V(1).Infof("clangjson: decoded %d nodes", ast.Count(n))
	return n, nil
}

func DecodeFile(path string, opts ...Option) (*ast.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, opts...)
}

// convert has to visit fields in the order clang printed them: loc, then
// range begin, then range end, then the inner nodes.
func (d *decoder) convert(j *jsonNode, top bool) *ast.Node {
	n := &ast.Node{
		Kind:     ast.KindFromName(j.Kind),
		RawKind:  j.Kind,
		Name:     j.Name,
		Implicit: j.IsImplicit,
	}
	d.nextID++
	n.ID = d.nextID
	if j.Loc != nil {
		n.Loc, _ = d.location(j.Loc)
	}
	if j.Range != nil {
		from, _ := d.location(&j.Range.Begin)
		to, tokLen := d.location(&j.Range.End)
		if to.IsValid() {
			to.Column += tokLen
			if to.Offset >= 0 {
				to.Offset += int(tokLen)
			}
		}
		n.Range = location.NewRange(from, to)
	}
	d.attrs(n, j)
	for _, c := range j.Inner {
		if c == nil {
			continue
		}
		if strings.HasSuffix(c.Kind, "Attr") {
			n.SetAttr("attr:"+c.Kind, "true")
			d.skip(c)
			continue
		}
		if strings.HasSuffix(c.Kind, "Comment") {
			d.skip(c)
			continue
		}
		child := d.convert(c, false)
		if top && d.keep != nil && child.IsDecl() && child.Location().IsValid() && !d.keep(child.Location().File) {
			continue
		}
		n.Children = append(n.Children, child)
	}
	return n
}

// skip consumes the locations of a subtree that is not kept so the elision
// state stays in step with the document.
func (d *decoder) skip(j *jsonNode) {
	if j.Loc != nil {
		d.location(j.Loc)
	}
	if j.Range != nil {
		d.location(&j.Range.Begin)
		d.location(&j.Range.End)
	}
	for _, c := range j.Inner {
		if c != nil {
			d.skip(c)
		}
	}
}

func (d *decoder) attrs(n *ast.Node, j *jsonNode) {
	set := func(k, v string) {
		if v != "" {
			n.SetAttr(k, v)
		}
	}
	set("tagUsed", j.TagUsed)
	set("storageClass", j.StorageClass)
	set("opcode", j.Opcode)
	set("castKind", j.CastKind)
	set("language", j.Language)
	set("access", j.Access)
	if j.Type != nil {
		set("type", j.Type.QualType)
	}
	if j.CompleteDefinition {
		set("completeDefinition", "true")
	}
	if j.IsInline {
		set("inline", "true")
	}
	if j.Value != nil {
		set("value", fmt.Sprint(j.Value))
	}
	if j.NominatedNamespace != nil {
		set("nominatedNamespace", j.NominatedNamespace.Name)
	}
}

// location resolves a printed location to its spelling position. Both
// spelling and expansion parts are consumed to keep the elision state in
// step, and the token length of the chosen part is returned.
func (d *decoder) location(l *jsonLoc) (location.Location, uint) {
	if l.SpellingLoc != nil || l.ExpansionLoc != nil {
		var spell, exp location.Location
		var spellLen, expLen uint
		if l.SpellingLoc != nil {
			spell, spellLen = d.bare(l.SpellingLoc)
		}
		if l.ExpansionLoc != nil {
			exp, expLen = d.bare(l.ExpansionLoc)
		}
		// Spellings inside <scratch space> are not real source text.
		if spell.IsValid() && !strings.HasPrefix(spell.File, "<") {
			return spell, spellLen
		}
		return exp, expLen
	}
	return d.bare(&l.bareLoc)
}

func (d *decoder) bare(b *bareLoc) (location.Location, uint) {
	if b.Offset == nil && b.Col == 0 {
		return location.Invalid, 0
	}
	if b.File != "" {
		d.lastFile = b.File
	}
	if b.Line != 0 {
		d.lastLine = b.Line
	}
	line, err1 := safecast.Conv[uint](d.lastLine)
	col, err2 := safecast.Conv[uint](b.Col)
	tok, err3 := safecast.Conv[uint](b.TokLen)
	if err1 != nil || err2 != nil || err3 != nil || d.lastFile == "" {
		return location.Invalid, 0
	}
	loc := location.New(d.lastFile, line, col)
	if b.Offset != nil {
		loc.Offset = *b.Offset
	}
	return loc, tok
}
