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
Package analyzer holds the per-translation-unit state every check works
against.

An Analyzer owns the configuration, the source buffers, the AST visitor, the
preprocessor observer, the attachment store and the pending diagnostics of
one translation unit. Checks subscribe to its visitor and observer channels,
keep private state in attachments, and report through Report, which applies
the suppression gate. Nothing here is shared between Analyzers, so
translation units can be analyzed in parallel with one Analyzer each.

The host drives an Analyzer in two steps: it feeds the preprocessor events
of the translation unit to PP(), then passes the parsed tree to
HandleTranslationUnit, which visits it, runs the end-of-unit checks and
delivers the diagnostics to the sink.
*/
package analyzer

import (
	"reflect"

	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/config"
	"naive.systems/bdeverify/cruleslib/diag"
	"naive.systems/bdeverify/cruleslib/events"
	"naive.systems/bdeverify/cruleslib/location"
	"naive.systems/bdeverify/cruleslib/ppobserver"
	"naive.systems/bdeverify/cruleslib/rewrite"
	"naive.systems/bdeverify/cruleslib/source"
	"naive.systems/bdeverify/cruleslib/visitor"
	"naive.systems/bdeverify/diff"
)

// Tags and codes of the diagnostics the Analyzer reports about itself.
const (
	TagPragma  = "pragma"
	TagConfig  = "config"
	TagRewrite = "rewrite"

	CodeUnmatchedPop = "PR01"
	CodeUnclosedPush = "PR02"
	CodeLoadFailed   = "CF01"
	CodeFixConflict  = "RW01"
)

type Analyzer struct {
	// OnTranslationUnitDone fires after the tree has been visited and before
	// the diagnostics are delivered.
	OnTranslationUnitDone *events.Channel[*Analyzer]

	config   *config.Config
	sources  *source.Manager
	sink     diag.Sink
	visitor  *visitor.Visitor
	pp       *ppobserver.Observer
	rewriter *rewrite.Rewriter
	patch    *diff.Index

	toplevel      string
	componentOnly bool
	applyFixes    bool

	root     *ast.Node
	parents  *ast.ParentMap
	attached map[reflect.Type]any
	pending  []*diag.Diagnostic
	failures int
	done     bool

	comp       *component
	components map[string]bool
}

type Option func(*Analyzer)

// WithConfig sets the configuration. The Analyzer records in-source
// directives into it, so it must not be shared with another Analyzer.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		a.config = cfg
	}
}

func WithSources(sources *source.Manager) Option {
	return func(a *Analyzer) {
		a.sources = sources
	}
}

func WithSink(sink diag.Sink) Option {
	return func(a *Analyzer) {
		a.sink = sink
	}
}

// WithToplevel names the file the translation unit is analyzed for. It
// defaults to the main file seen by the preprocessor observer.
func WithToplevel(file string) Option {
	return func(a *Analyzer) {
		a.toplevel = file
	}
}

// WithComponentOnly drops diagnostics outside the files of the toplevel
// component.
func WithComponentOnly(on bool) Option {
	return func(a *Analyzer) {
		a.componentOnly = on
	}
}

// WithDiff drops diagnostics on lines the patch did not add.
func WithDiff(patch *diff.Index) Option {
	return func(a *Analyzer) {
		a.patch = patch
	}
}

// WithFixes applies the fixes of delivered diagnostics to the rewriter.
func WithFixes(on bool) Option {
	return func(a *Analyzer) {
		a.applyFixes = on
	}
}

func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		OnTranslationUnitDone: events.NewChannel[*Analyzer]("TranslationUnitDone"),
		attached:              make(map[reflect.Type]any),
		components:            make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		a.config = config.New()
	}
	if a.sources == nil {
		a.sources = source.NewManager()
	}
	if a.sink == nil {
		a.sink = diag.SinkFunc(func(d *diag.Diagnostic) {
			glog.Info(d)
		})
	}
	a.visitor = visitor.New()
	a.pp = ppobserver.New(a.config, a.sources)
	a.rewriter = rewrite.New(a.sources)

	a.visitor.SetPanicHandler(a.handlerPanicked)
	a.pp.SetPanicHandler(a.handlerPanicked)
	a.OnTranslationUnitDone.OnPanic = a.handlerPanicked
	return a
}

func (a *Analyzer) handlerPanicked(channel string, index int, recovered any) {
	a.failures++
}

func (a *Analyzer) Config() *config.Config {
	return a.config
}

func (a *Analyzer) Sources() *source.Manager {
	return a.sources
}

func (a *Analyzer) Visitor() *visitor.Visitor {
	return a.visitor
}

// PP returns the preprocessor observer the host feeds.
func (a *Analyzer) PP() *ppobserver.Observer {
	return a.pp
}

func (a *Analyzer) Rewriter() *rewrite.Rewriter {
	return a.rewriter
}

// Root returns the translation unit being visited, or nil before
// HandleTranslationUnit.
func (a *Analyzer) Root() *ast.Node {
	return a.root
}

// HandlerFailures returns the number of handler calls that panicked.
func (a *Analyzer) HandlerFailures() int {
	return a.failures
}

// Value returns the configuration value of key in effect at where.
func (a *Analyzer) Value(key string, where location.Location) string {
	return a.config.Value(key, where)
}

// HandleTranslationUnit visits root, runs the end-of-unit checks and
// delivers the diagnostics. It must be called once, after the preprocessor
// events of the unit have been fed to PP().
func (a *Analyzer) HandleTranslationUnit(root *ast.Node) {
	if a.done {
		glog.Warningf("analyzer: translation unit %s handled twice", a.Toplevel())
		return
	}
	a.root = root
	if root != nil {
		a.parents = ast.NewParentMap(root)
		a.visitor.Visit(root)
	}
	a.OnTranslationUnitDone.Fire(a)
	a.checkStack()
	a.reportLoadErrors()
	a.flush()
	a.done = true
}

func (a *Analyzer) checkStack() {
	for _, d := range a.config.CheckStack() {
		switch d.Kind {
		case config.UnmatchedPop:
			a.Report(d.Where, TagPragma, CodeUnmatchedPop,
				"Pop of empty stack", Always())
		case config.UnclosedPush:
			a.Report(d.Where, TagPragma, CodeUnclosedPush,
				"Push without matching pop", Always())
		}
	}
}

func (a *Analyzer) reportLoadErrors() {
	for _, e := range a.config.LoadErrors() {
		where := location.Invalid
		if e.Where != "" {
			where = location.New(e.Where, 1, 1)
		}
		a.Report(where, TagConfig, CodeLoadFailed, "Cannot load configuration %0: %1", Always(), WithSeverity(diag.Error)).
			Args(e.Path, e.Err.Error())
	}
}

// GetParent returns the nearest proper ancestor of n of one of kinds, or
// the immediate parent when no kind is given. It returns nil before
// HandleTranslationUnit and when no such ancestor exists.
func (a *Analyzer) GetParent(n *ast.Node, kinds ...ast.Kind) *ast.Node {
	if len(kinds) == 0 {
		return a.parents.Parent(n)
	}
	if a.parents == nil {
		return nil
	}
	return a.parents.Ancestor(n, kinds...)
}
