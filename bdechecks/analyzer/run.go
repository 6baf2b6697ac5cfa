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
	"fmt"
	"strconv"

	"github.com/golang/glog"

	"naive.systems/bdeverify/bdechecks/includeguard"
	"naive.systems/bdeverify/bdechecks/longlines"
	"naive.systems/bdeverify/bdechecks/nestednamespace"
	"naive.systems/bdeverify/bdechecks/trailingspace"
	"naive.systems/bdeverify/bdechecks/usingdirective"
	"naive.systems/bdeverify/cruleslib/analyzer"
	"naive.systems/bdeverify/cruleslib/checks"
	"naive.systems/bdeverify/cruleslib/config"
	"naive.systems/bdeverify/cruleslib/ppscan"
	"naive.systems/bdeverify/cruleslib/results"
	"naive.systems/bdeverify/cruleslib/runner"
	"naive.systems/bdeverify/cruleslib/source"
	"naive.systems/bdeverify/diff"
)

// Checks returns a registry holding every check, in attachment order.
func Checks() (*checks.Registry, error) {
	r := checks.NewRegistry()
	for _, c := range []checks.Check{
		includeguard.Check,
		longlines.Check,
		nestednamespace.Check,
		trailingspace.Check,
		usingdirective.Check,
	} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// KeyMaxReports limits the diagnostics kept per tag; KeyMaxReports+"_"+tag
// overrides it for one tag. Zero or unset means no limit.
const KeyMaxReports = "max_reports"

// ReportLimits returns the per-tag report limits configured in cfg.
func ReportLimits(cfg *config.Config, tags []string) map[string]int {
	limits := make(map[string]int)
	for _, tag := range tags {
		value := cfg.Global(KeyMaxReports + "_" + tag)
		if value == "" {
			value = cfg.Global(KeyMaxReports)
		}
		if value == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			glog.Warningf("ignoring %s %q for %s", KeyMaxReports, value, tag)
			continue
		}
		if n > 0 {
			limits[tag] = n
		}
	}
	return limits
}

// Env is shared by the analyses of every translation unit of a run. It is
// only read once the run starts.
type Env struct {
	Config   *config.Config
	Registry *checks.Registry
	AST      runner.ASTOptions
	// Patch restricts reports to added lines when set.
	Patch         *diff.Index
	ComponentOnly bool
	// Fixes makes outcomes carry the rewritten files.
	Fixes bool
}

// AnalyzeTranslationUnit runs the checks of env over tu with an Analyzer of
// its own. When the tree cannot be loaded, the preprocessor checks still run
// and their diagnostics are returned along with the error.
func (env *Env) AnalyzeTranslationUnit(tu runner.TranslationUnit) (*runner.Outcome, error) {
	sources := source.NewManager()
	set := results.NewResultsSet()
	a := analyzer.New(
		analyzer.WithConfig(env.Config.Clone()),
		analyzer.WithSources(sources),
		analyzer.WithSink(set),
		analyzer.WithToplevel(tu.File),
		analyzer.WithComponentOnly(env.ComponentOnly),
		analyzer.WithDiff(env.Patch),
		analyzer.WithFixes(env.Fixes),
	)
	env.Registry.Attach(a)

	sc := ppscan.Scanner{Sources: sources, IncludeDirs: tu.IncludeDirs, SystemDirs: tu.SystemDirs}
	if err := sc.Scan(tu.File, a.PP()); err != nil {
		return nil, err
	}
	root, astErr := runner.LoadAST(tu, env.AST, func(file string) bool {
		return !a.IsSystemHeader(file)
	})
	if astErr != nil {
		glog.Errorf("%s: %v", tu.File, astErr)
		astErr = fmt.Errorf("load AST of %s: %v", tu.File, astErr)
		root = nil
	}
	a.HandleTranslationUnit(root)

	outcome := &runner.Outcome{
		Diagnostics:     set.Results,
		HandlerFailures: a.HandlerFailures(),
	}
	if env.Fixes {
		outcome.Rewritten = make(map[string][]byte)
		outcome.Diffs = make(map[string]string)
		for _, file := range a.Rewriter().Files() {
			content, err := a.Rewriter().Contents(file)
			if err != nil {
				glog.Errorf("rewrite %s: %v", file, err)
				continue
			}
			outcome.Rewritten[file] = content
			d, err := a.Rewriter().UnifiedDiff(file)
			if err != nil {
				glog.Errorf("diff %s: %v", file, err)
				continue
			}
			outcome.Diffs[file] = d
		}
	}
	glog.Infof("%s: %d diagnostic(s), %d handler failure(s)", tu.File, len(outcome.Diagnostics), outcome.HandlerFailures)
	return outcome, astErr
}

// Run analyzes tus in parallel.
func Run(tus []runner.TranslationUnit, env *Env, jobs int, checkProgress bool, lang, resultsDir string) (*runner.Collection, []error) {
	paraTaskRunner := runner.NewParaTaskRunner(jobs, len(tus), checkProgress, lang, resultsDir)
	for i, tu := range tus {
		exitingResults, exitingErrors := paraTaskRunner.CheckSignalExiting()
		if exitingResults != nil {
			return exitingResults, exitingErrors
		}
		paraTaskRunner.AddTask(runner.AnalyzerTask{Id: i, TU: tu, Analyze: env.AnalyzeTranslationUnit})
	}
	return paraTaskRunner.CollectResultsAndErrors()
}
