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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"golang.org/x/text/message"

	"naive.systems/bdeverify/atomic"
	bdeverify "naive.systems/bdeverify/bdechecks/analyzer"
	"naive.systems/bdeverify/cpumem"
	"naive.systems/bdeverify/cruleslib/baseline"
	"naive.systems/bdeverify/cruleslib/basic"
	"naive.systems/bdeverify/cruleslib/compilecommand"
	"naive.systems/bdeverify/cruleslib/config"
	"naive.systems/bdeverify/cruleslib/excerpt"
	"naive.systems/bdeverify/cruleslib/filter"
	"naive.systems/bdeverify/cruleslib/i18n"
	"naive.systems/bdeverify/cruleslib/options"
	"naive.systems/bdeverify/cruleslib/runner"
	"naive.systems/bdeverify/cruleslib/stats"
	"naive.systems/bdeverify/diff"
)

func main() {
	sharedOptions := options.NewSharedOptions()
	flag.Parse()
	defer glog.Flush()

	// Do not call any logging functions of glog before this part.
	options.InitLogging(sharedOptions)
	if err := options.CheckSharedOptions(sharedOptions); err != nil {
		glog.Fatalf("options.CheckSharedOptions: %v", err)
	}
	printer := i18n.GetPrinter(sharedOptions.GetLang())
	resultsDir := sharedOptions.GetResultsDir()
	start := time.Now()

	cpumem.Init(sharedOptions.GetJobs(), sharedOptions.GetMaxAstMemory())
	glog.Info("jobs: ", sharedOptions.GetJobs())
	glog.Info("maxAstMemory: ", sharedOptions.GetMaxAstMemory())

	if resultsDir != "" {
		stats.WriteProgress(resultsDir, stats.CFG, "0%", start)
	}
	cfg := config.New()
	for _, path := range sharedOptions.GetConfigFiles() {
		// The failure is kept and reported as a diagnostic.
		if err := cfg.LoadFile(path); err != nil {
			glog.Warningf("config: %v", err)
		}
	}
	for _, line := range sharedOptions.GetConfigLines() {
		cfg.Process(line)
	}
	registry, err := bdeverify.Checks()
	if err != nil {
		glog.Fatalf("bdeverify.Checks: %v", err)
	}

	var patch *diff.Patch
	var patchIndex *diff.Index
	if sharedOptions.GetDiffFile() != "" {
		patch, err = readPatch(sharedOptions.GetDiffFile())
		if err != nil {
			glog.Fatal(err)
		}
		patchIndex = diff.NewIndex(patch)
		glog.Infof("diff touches %d file(s)", patchIndex.Files())
	}

	tus, err := translationUnits(sharedOptions, flag.Args())
	if err != nil {
		glog.Fatal(err)
	}
	if len(tus) == 0 {
		fmt.Println(printer.Sprintf(i18n.MsgNothingToAnalyze))
		return
	}
	basic.PrintfWithTimeStamp("%s", printer.Sprintf(i18n.MsgTranslationUnits, len(tus)))
	if resultsDir != "" {
		stats.WriteTUCount(resultsDir, len(tus))
		stats.WriteProgress(resultsDir, stats.AST, "0%", start)
	}

	fixes := sharedOptions.GetRewriteDir() != "" || sharedOptions.GetDiffFixes()
	env := &bdeverify.Env{
		Config:   cfg,
		Registry: registry,
		AST: runner.ASTOptions{
			ClangBin:    sharedOptions.GetClangBin(),
			AstDir:      sharedOptions.GetAstDir(),
			Timeout:     time.Duration(sharedOptions.GetTimeoutNormal()) * time.Second,
			MemoryPerTU: sharedOptions.GetMaxAstMemory() / max(sharedOptions.GetJobs(), 1),
		},
		Patch:         patchIndex,
		ComponentOnly: sharedOptions.GetComponentOnly(),
		Fixes:         fixes,
	}
	collection, errs := bdeverify.Run(tus, env, sharedOptions.GetJobs(), sharedOptions.GetCheckProgress(), sharedOptions.GetLang(), resultsDir)
	if err := runner.FirstError(errs); err != nil {
		glog.Error(err)
	}
	if collection.HandlerFailures > 0 {
		glog.Warningf("%d check handler(s) failed", collection.HandlerFailures)
	}

	set := collection.Results
	if sharedOptions.GetBaseline() != "" {
		known, err := baseline.Load(sharedOptions.GetBaseline())
		if err != nil {
			glog.Fatal(err)
		}
		if rev, err := baseline.GetHeadCommitHash("."); err == nil {
			glog.Infof("comparing revision %s with baseline %s", rev, sharedOptions.GetBaseline())
		}
		glog.Infof("%d diagnostic(s) already in the baseline", known.RemoveKnown(set, patch))
	}
	if n := filter.IgnoreResults(set, sharedOptions.GetIgnoreDirPatterns()); n > 0 {
		glog.Infof("%d diagnostic(s) in ignored files", n)
	}
	set.Sort()
	if n := filter.DeleteExceedResults(set, bdeverify.ReportLimits(cfg, registry.Tags())); n > 0 {
		glog.Infof("%d diagnostic(s) over the per-tag limit", n)
	}
	set.AddID()

	if sharedOptions.GetShowResults() {
		if sharedOptions.GetShowContext() > 0 {
			excerpt.Print(os.Stdout, set.Results, uint(sharedOptions.GetShowContext()), sharedOptions.GetCharset())
		} else {
			set.Print(os.Stdout, false)
		}
	}
	if resultsDir != "" {
		if sharedOptions.GetShowJsonResults() {
			resultsJsonPath := filepath.Join(resultsDir, "nsa_results.json")
			if err := set.WriteJSON(resultsJsonPath); err != nil {
				glog.Fatal(err)
			}
			fmt.Println(printer.Sprintf(i18n.MsgResultsWritten, resultsJsonPath))
		}
		// count results by severity and save stats to severity_stats.nsa_metadata
		stats.CountSeverityAndWrite(set.Results, resultsDir)
	}

	if fixes {
		writeFixes(collection, sharedOptions, printer)
	}

	summary := stats.Summarize(set.Results)
	fmt.Println(printer.Sprintf(i18n.MsgDiagnostics, set.Len()))
	fmt.Println(printer.Sprintf(i18n.MsgBySeverity, summary.Severity.Error, summary.Severity.Warning, summary.Severity.Remark, summary.Severity.Note))
	if sharedOptions.GetCheckProgress() {
		basic.PrintfWithTimeStamp("total time %s", basic.FormatTimeDuration(time.Since(start)))
	}
	if resultsDir != "" {
		stats.WriteProgress(resultsDir, stats.END, "100%", start)
	}
	glog.Flush()
	if collection.Interrupted || set.Failing(sharedOptions.GetWarningsAsErrors()) > 0 {
		os.Exit(1)
	}
}

// translationUnits lists the units named by -compile_commands followed by
// the files given as arguments.
func translationUnits(s *options.SharedOptions, files []string) ([]runner.TranslationUnit, error) {
	clangArgs, err := options.ParseClangArgs(s)
	if err != nil {
		return nil, err
	}
	var tus []runner.TranslationUnit
	if s.GetCompileCommands() != "" {
		commands, err := compilecommand.ReadCompileCommandsFromFile(s.GetCompileCommands())
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %v", s.GetCompileCommands(), err)
		}
		for _, cc := range compilecommand.Unique(*commands) {
			tu, err := runner.FromCompileCommand(cc, nil)
			if err != nil {
				glog.Errorf("skipping %s: %v", cc.Path(), err)
				continue
			}
			tus = append(tus, tu)
		}
	}
	for _, file := range files {
		tu, err := runner.FromFile(file, clangArgs, s.GetIncludeDirs(), s.GetSystemDirs())
		if err != nil {
			return nil, err
		}
		tus = append(tus, tu)
	}
	return tus, nil
}

func readPatch(path string) (*diff.Patch, error) {
	var content []byte
	var err error
	if path == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read diff %s: %v", path, err)
	}
	patch, err := diff.Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("cannot parse diff %s: %v", path, err)
	}
	return patch, nil
}

func writeFixes(collection *runner.Collection, s *options.SharedOptions, printer *message.Printer) {
	if s.GetDiffFixes() {
		for _, file := range collection.Files() {
			fmt.Print(collection.Diffs[file])
		}
	}
	dir := s.GetRewriteDir()
	if dir == "" {
		return
	}
	n := 0
	for _, file := range collection.Files() {
		out := filepath.Join(dir, filepath.Clean(file))
		if err := atomic.Write(out, collection.Rewritten[file]); err != nil {
			glog.Errorf("cannot write %s: %v", out, err)
			continue
		}
		n++
	}
	fmt.Println(printer.Sprintf(i18n.MsgRewritten, n, dir))
}
