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

/*
Package ppobserver turns the preprocessor callbacks of a host into typed
event channels.

The host calls the exported callback methods in source order. Each callback
updates the file stack where relevant and fires its channel. Comments and
pragma directives are also matched against the bde_verify directive grammar,
and recognized directives are handed to the configuration.
*/
package ppobserver

import (
	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/config"
	"naive.systems/bdeverify/cruleslib/events"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/source"
)

type FileChangeReason uint8

const (
	EnterFile FileChangeReason = iota
	ExitFile
	SystemHeaderPragma
	RenameFile
)

type FileKind uint8

const (
	UserFile FileKind = iota
	SystemFile
	ExternCSystemFile
)

// ConditionValue is the evaluated truth of an #if or #elif. Hosts that do not
// evaluate conditions report NotEvaluated.
type ConditionValue uint8

const (
	NotEvaluated ConditionValue = iota
	False
	True
)

type FileChange struct {
	Where  location.Location
	Reason FileChangeReason
	Kind   FileKind
	// File is the file entered, or the file returned to on exit.
	File string
	// Previous is the file that was current before the change.
	Previous string
}

// FileSkip is an #include of a file that was not entered again because of
// its include guard.
type FileSkip struct {
	Where  location.Location
	Header string
	Kind   FileKind
}

type Inclusion struct {
	Where    location.Location
	Range    location.Range
	Name     string
	Angled   bool
	Resolved string
}

type Macro struct {
	Name       string
	Where      location.Location
	Range      location.Range
	Definition string
	Args       []string
}

type Conditional struct {
	Directive string
	Where     location.Location
	Condition location.Range
	Text      string
	Value     ConditionValue
	// IfWhere is the location of the opening #if for #elif, #else and #endif.
	IfWhere location.Location
}

type Comment struct {
	Range location.Range
	Text  string
}

type Pragma struct {
	Where location.Location
	Range location.Range
	Text  string
}

type Ident struct {
	Where location.Location
	Text  string
}

type Observer struct {
	OnFileChanged        *events.Channel[FileChange]
	OnFileSkipped        *events.Channel[FileSkip]
	OnInclusion          *events.Channel[Inclusion]
	OnMacroDefined       *events.Channel[Macro]
	OnMacroUndefined     *events.Channel[Macro]
	OnMacroExpands       *events.Channel[Macro]
	OnDefined            *events.Channel[Macro]
	OnIf                 *events.Channel[Conditional]
	OnElif               *events.Channel[Conditional]
	OnIfdef              *events.Channel[Conditional]
	OnIfndef             *events.Channel[Conditional]
	OnElse               *events.Channel[Conditional]
	OnEndif              *events.Channel[Conditional]
	OnSourceRangeSkipped *events.Channel[location.Range]
	OnComment            *events.Channel[Comment]
	OnPragma             *events.Channel[Pragma]
	OnIdent              *events.Channel[Ident]
	OnDirective          *events.Channel[config.Directive]
	OnEndOfMainFile      *events.Channel[string]

	config  *config.Config
	sources *source.Manager

	mainFile     string
	stack        []string
	includedFrom map[string]location.Location
	system       map[string]bool
	ifStack      []location.Location
}

// New returns an Observer that forwards directives to cfg. sources is used
// to read directive lines the host does not supply; it may be nil.
func New(cfg *config.Config, sources *source.Manager) *Observer {
	return &Observer{
		OnFileChanged:        events.NewChannel[FileChange]("FileChanged"),
		OnFileSkipped:        events.NewChannel[FileSkip]("FileSkipped"),
		OnInclusion:          events.NewChannel[Inclusion]("InclusionDirective"),
		OnMacroDefined:       events.NewChannel[Macro]("MacroDefined"),
		OnMacroUndefined:     events.NewChannel[Macro]("MacroUndefined"),
		OnMacroExpands:       events.NewChannel[Macro]("MacroExpands"),
		OnDefined:            events.NewChannel[Macro]("Defined"),
		OnIf:                 events.NewChannel[Conditional]("If"),
		OnElif:               events.NewChannel[Conditional]("Elif"),
		OnIfdef:              events.NewChannel[Conditional]("Ifdef"),
		OnIfndef:             events.NewChannel[Conditional]("Ifndef"),
		OnElse:               events.NewChannel[Conditional]("Else"),
		OnEndif:              events.NewChannel[Conditional]("Endif"),
		OnSourceRangeSkipped: events.NewChannel[location.Range]("SourceRangeSkipped"),
		OnComment:            events.NewChannel[Comment]("Comment"),
		OnPragma:             events.NewChannel[Pragma]("PragmaDirective"),
		OnIdent:              events.NewChannel[Ident]("Ident"),
		OnDirective:          events.NewChannel[config.Directive]("Directive"),
		OnEndOfMainFile:      events.NewChannel[string]("EndOfMainFile"),
		config:               cfg,
		sources:              sources,
		includedFrom:         make(map[string]location.Location),
		system:               make(map[string]bool),
	}
}

// SetPanicHandler installs h on every channel.
func (o *Observer) SetPanicHandler(h events.PanicHandler) {
	o.OnFileChanged.OnPanic = h
	o.OnFileSkipped.OnPanic = h
	o.OnInclusion.OnPanic = h
	o.OnMacroDefined.OnPanic = h
	o.OnMacroUndefined.OnPanic = h
	o.OnMacroExpands.OnPanic = h
	o.OnDefined.OnPanic = h
	for _, c := range []*events.Channel[Conditional]{o.OnIf, o.OnElif, o.OnIfdef, o.OnIfndef, o.OnElse, o.OnEndif} {
		c.OnPanic = h
	}
	o.OnSourceRangeSkipped.OnPanic = h
	o.OnComment.OnPanic = h
	o.OnPragma.OnPanic = h
	o.OnIdent.OnPanic = h
	o.OnDirective.OnPanic = h
	o.OnEndOfMainFile.OnPanic = h
}

// MainFile returns the first file entered.
func (o *Observer) MainFile() string {
	return o.mainFile
}

// CurrentFile returns the innermost open file.
func (o *Observer) CurrentFile() string {
	if len(o.stack) == 0 {
		return ""
	}
	return o.stack[len(o.stack)-1]
}

// FileStack returns the open files, outermost first.
func (o *Observer) FileStack() []string {
	return append([]string(nil), o.stack...)
}

// IncludedFrom returns the location of the #include that first entered file.
func (o *Observer) IncludedFrom(file string) (location.Location, bool) {
	l, ok := o.includedFrom[file]
	return l, ok
}

// IsSystem reports whether file was entered as a system header.
func (o *Observer) IsSystem(file string) bool {
	return o.system[file]
}

// FileChanged is called when the host enters or leaves a file. For
// EnterFile, where is the start of the new file and includer the location of
// the #include; for ExitFile, where is in the file returned to.
func (o *Observer) FileChanged(where location.Location, reason FileChangeReason, kind FileKind, includer location.Location) {
	fc := FileChange{Where: where, Reason: reason, Kind: kind, Previous: o.CurrentFile()}
	switch reason {
	case EnterFile:
		if o.mainFile == "" {
			o.mainFile = where.File
		}
		o.stack = append(o.stack, where.File)
		if _, seen := o.includedFrom[where.File]; !seen && includer.IsValid() {
			o.includedFrom[where.File] = includer
		}
		if kind != UserFile {
			o.system[where.File] = true
		}
	case ExitFile:
		if len(o.stack) > 1 {
			o.stack = o.stack[:len(o.stack)-1]
		} else {
			glog.Warningf("ppobserver: exit from %s with no includer", o.CurrentFile())
		}
	case SystemHeaderPragma:
		o.system[o.CurrentFile()] = true
	}
	fc.File = o.CurrentFile()
	o.OnFileChanged.Fire(fc)
}

// FileSkipped is called for an #include whose target was not re-entered.
// line is the directive text; when empty it is read from the sources.
func (o *Observer) FileSkipped(where location.Location, line string, kind FileKind) {
	if line == "" && o.sources != nil {
		line = o.sources.LineText(where)
	}
	name, ok := IncludedName(line)
	if !ok {
		glog.V(1).Infof("ppobserver: no header name in skipped include at %v", where)
	}
	o.OnFileSkipped.Fire(FileSkip{Where: where, Header: name, Kind: kind})
}

func (o *Observer) InclusionDirective(inc Inclusion) {
	o.OnInclusion.Fire(inc)
}

func (o *Observer) MacroDefined(m Macro) {
	o.OnMacroDefined.Fire(m)
}

func (o *Observer) MacroUndefined(m Macro) {
	o.OnMacroUndefined.Fire(m)
}

func (o *Observer) MacroExpands(m Macro) {
	o.OnMacroExpands.Fire(m)
}

func (o *Observer) Defined(m Macro) {
	o.OnDefined.Fire(m)
}

func (o *Observer) If(c Conditional) {
	c.Directive = "if"
	o.ifStack = append(o.ifStack, c.Where)
	o.OnIf.Fire(c)
}

func (o *Observer) Ifdef(c Conditional) {
	c.Directive = "ifdef"
	o.ifStack = append(o.ifStack, c.Where)
	o.OnIfdef.Fire(c)
}

func (o *Observer) Ifndef(c Conditional) {
	c.Directive = "ifndef"
	o.ifStack = append(o.ifStack, c.Where)
	o.OnIfndef.Fire(c)
}

func (o *Observer) Elif(c Conditional) {
	c.Directive = "elif"
	c.IfWhere = o.openIf()
	o.OnElif.Fire(c)
}

func (o *Observer) Else(c Conditional) {
	c.Directive = "else"
	c.IfWhere = o.openIf()
	o.OnElse.Fire(c)
}

func (o *Observer) Endif(c Conditional) {
	c.Directive = "endif"
	c.IfWhere = o.openIf()
	if len(o.ifStack) > 0 {
		o.ifStack = o.ifStack[:len(o.ifStack)-1]
	}
	o.OnEndif.Fire(c)
}

func (o *Observer) openIf() location.Location {
	if len(o.ifStack) == 0 {
		return location.Invalid
	}
	return o.ifStack[len(o.ifStack)-1]
}

func (o *Observer) SourceRangeSkipped(r location.Range) {
	o.OnSourceRangeSkipped.Fire(r)
}

// Comment is called for every comment, directive comments included.
func (o *Observer) Comment(r location.Range, text string) {
	if d, ok := ParseComment(text, r.From); ok {
		o.directive(d)
	}
	o.OnComment.Fire(Comment{Range: r, Text: text})
}

// PragmaDirective is called with the full text of a #pragma line.
func (o *Observer) PragmaDirective(r location.Range, text string) {
	if d, ok := ParsePragma(text, r.From); ok {
		o.directive(d)
	}
	o.OnPragma.Fire(Pragma{Where: r.From, Range: r, Text: text})
}

func (o *Observer) Ident(where location.Location, text string) {
	o.OnIdent.Fire(Ident{Where: where, Text: text})
}

// EndOfMainFile is called once after the last token of the main file.
func (o *Observer) EndOfMainFile() {
	o.OnEndOfMainFile.Fire(o.mainFile)
}

func (o *Observer) directive(d config.Directive) {
	glog.V(1).Infof("ppobserver: %v", d)
	if o.config != nil {
		o.config.Apply(d)
	}
	o.OnDirective.Fire(d)
}
