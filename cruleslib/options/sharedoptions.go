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

package options

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/golang/glog"
	"github.com/google/shlex"
)

type ArrayFlags []string

func (i *ArrayFlags) String() string {
	return strings.Join(*i, ",")
}

func (i *ArrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

type SharedOptions struct {
	AstDir            *string
	Baseline          *string
	Charset           *string
	CheckProgress     *bool
	ClangArgs         *string
	ClangBin          *string
	CompileCommands   *string
	ConfigFiles       ArrayFlags
	ConfigLines       ArrayFlags
	DebugMode         *bool
	DiffFile          *string
	DiffFixes         *bool
	IgnoreDirPatterns ArrayFlags
	IncludeDirs       ArrayFlags
	Jobs              *int
	Lang              *string
	MaxAstMemory      *int
	ResultsDir        *string
	RewriteDir        *string
	ShowJsonResults   *bool
	ShowContext       *int
	ShowResults       *bool
	SystemDirs        ArrayFlags
	TimeoutNormal     *int
	ComponentOnly     *bool
	WarningsAsErrors  *bool
}

func (s SharedOptions) GetAstDir() string {
	return *s.AstDir
}

func (s SharedOptions) GetBaseline() string {
	return *s.Baseline
}

func (s SharedOptions) GetCharset() string {
	return *s.Charset
}

func (s SharedOptions) GetCheckProgress() bool {
	return *s.CheckProgress
}

func (s SharedOptions) GetClangArgs() string {
	return *s.ClangArgs
}

func (s SharedOptions) GetClangBin() string {
	return *s.ClangBin
}

func (s SharedOptions) GetCompileCommands() string {
	return *s.CompileCommands
}

func (s SharedOptions) GetConfigFiles() ArrayFlags {
	return s.ConfigFiles
}

func (s SharedOptions) GetConfigLines() ArrayFlags {
	return s.ConfigLines
}

func (s SharedOptions) GetDebugMode() bool {
	return *s.DebugMode
}

func (s SharedOptions) GetDiffFile() string {
	return *s.DiffFile
}

func (s SharedOptions) GetDiffFixes() bool {
	return *s.DiffFixes
}

func (s SharedOptions) GetIgnoreDirPatterns() ArrayFlags {
	return s.IgnoreDirPatterns
}

func (s SharedOptions) GetIncludeDirs() ArrayFlags {
	return s.IncludeDirs
}

func (s SharedOptions) GetJobs() int {
	return *s.Jobs
}

func (s SharedOptions) GetLang() string {
	return *s.Lang
}

// GetMaxAstMemory returns the AST memory budget in KB.
func (s SharedOptions) GetMaxAstMemory() int {
	return *s.MaxAstMemory * 1024
}

func (s SharedOptions) GetResultsDir() string {
	return *s.ResultsDir
}

func (s SharedOptions) GetRewriteDir() string {
	return *s.RewriteDir
}

func (s SharedOptions) GetShowJsonResults() bool {
	return *s.ShowJsonResults
}

func (s SharedOptions) GetShowContext() int {
	return *s.ShowContext
}

func (s SharedOptions) GetShowResults() bool {
	return *s.ShowResults
}

func (s SharedOptions) GetSystemDirs() ArrayFlags {
	return s.SystemDirs
}

func (s SharedOptions) GetTimeoutNormal() int {
	return *s.TimeoutNormal
}

func (s SharedOptions) GetComponentOnly() bool {
	return *s.ComponentOnly
}

func (s SharedOptions) GetWarningsAsErrors() bool {
	return *s.WarningsAsErrors
}

func (s SharedOptions) SetJobs(jobs int) {
	*s.Jobs = jobs
}

type DefaultOptionValues struct {
	AstDir           string
	Baseline         string
	Charset          string
	CheckProgress    bool
	ClangArgs        string
	ClangBin         string
	CompileCommands  string
	DebugMode        bool
	DiffFile         string
	DiffFixes        bool
	Jobs             int
	Lang             string
	MaxAstMemory     int
	ResultsDir       string
	RewriteDir       string
	ShowJsonResults  bool
	ShowContext      int
	ShowResults      bool
	TimeoutNormal    int
	ComponentOnly    bool
	WarningsAsErrors bool
}

var Defaults = DefaultOptionValues{
	AstDir:           "",
	Baseline:         "",
	Charset:          "utf8",
	CheckProgress:    true,
	ClangArgs:        "-std=c++17",
	ClangBin:         "clang++",
	CompileCommands:  "",
	DebugMode:        false,
	DiffFile:         "",
	DiffFixes:        false,
	Jobs:             0,
	Lang:             "en",
	MaxAstMemory:     0,
	ResultsDir:       "",
	RewriteDir:       "",
	ShowJsonResults:  false,
	ShowContext:      0,
	ShowResults:      true,
	TimeoutNormal:    300,
	ComponentOnly:    true,
	WarningsAsErrors: false,
}

func NewSharedOptions() *SharedOptions {
	return NewSharedOptionsFromFlagSet(flag.CommandLine)
}

func NewSharedOptionsFromFlagSet(fs *flag.FlagSet) *SharedOptions {
	option := &SharedOptions{}

	option.AstDir = fs.String("ast_dir", Defaults.AstDir, "Directory holding pre-dumped clang JSON ASTs named <source base name>.json; clang is not run when set")
	option.Baseline = fs.String("baseline", Defaults.Baseline, "JSON results of an earlier run; diagnostics already present there are not reported again")
	option.Charset = fs.String("charset", Defaults.Charset, "Charset of the source files, used when printing code excerpts")
	option.CheckProgress = fs.Bool("check_progress", Defaults.CheckProgress, "Show the checking progress")
	option.ClangArgs = fs.String("clang_args", Defaults.ClangArgs, "Extra arguments passed to clang when dumping the AST")
	option.ClangBin = fs.String("clang_bin", Defaults.ClangBin, "Clang binary used to dump the AST")
	option.CompileCommands = fs.String("compile_commands", Defaults.CompileCommands, "Path to a compile_commands.json listing the translation units")
	option.DebugMode = fs.Bool("debug_mode", Defaults.DebugMode, "Whether to display error information")
	option.DiffFile = fs.String("diff", Defaults.DiffFile, "Unified diff restricting reports to added or changed lines; \"-\" reads standard input")
	option.DiffFixes = fs.Bool("diff_fixes", Defaults.DiffFixes, "Print proposed fixes as unified diffs")
	option.Jobs = fs.Int("jobs", Defaults.Jobs, "Number of translation units analyzed in parallel, 0 means the number of CPUs")
	option.Lang = fs.String("lang", Defaults.Lang, "Language of progress messages, en or zh")
	option.MaxAstMemory = fs.Int("max_ast_memory", Defaults.MaxAstMemory, "Megabytes of AST JSON held in memory at once, 0 means no limit")
	option.ResultsDir = fs.String("results_dir", Defaults.ResultsDir, "Directory of results and metadata files")
	option.RewriteDir = fs.String("rewrite_dir", Defaults.RewriteDir, "Directory receiving files rewritten with the proposed fixes")
	option.ShowJsonResults = fs.Bool("json_results", Defaults.ShowJsonResults, "Whether to write results in protojson format")
	option.ShowContext = fs.Int("show_context", Defaults.ShowContext, "Lines of code printed around each diagnostic, 0 prints none")
	option.ShowResults = fs.Bool("show_results", Defaults.ShowResults, "Print diagnostics after the analysis")
	option.TimeoutNormal = fs.Int("timeout_normal", Defaults.TimeoutNormal, "Seconds of timeout for dumping one translation unit")
	option.ComponentOnly = fs.Bool("component_only", Defaults.ComponentOnly, "Only report diagnostics located in the main file or its component header")
	option.WarningsAsErrors = fs.Bool("warnings_as_errors", Defaults.WarningsAsErrors, "Exit with failure when warnings are reported")

	fs.Var(&option.ConfigFiles, "config", "Config file (line commands, .yaml or .toml); may be repeated")
	fs.Var(&option.ConfigLines, "cl", "Config line processed after the config files; may be repeated")
	fs.Var(&option.IncludeDirs, "I", "User include directory; may be repeated")
	fs.Var(&option.SystemDirs, "isystem", "System include directory; may be repeated")
	fs.Var(&option.IgnoreDirPatterns, "ignore_dir", "Doublestar pattern of files whose diagnostics are dropped; may be repeated")

	return option
}

// ParseClangArgs splits the -clang_args value the way a shell would.
func ParseClangArgs(s *SharedOptions) ([]string, error) {
	args, err := shlex.Split(s.GetClangArgs())
	if err != nil {
		return nil, fmt.Errorf("invalid clang args %q: %v", s.GetClangArgs(), err)
	}
	return args, nil
}

// CheckSharedOptions validates the flag values and fills in derived defaults.
func CheckSharedOptions(s *SharedOptions) error {
	if _, err := ParseClangArgs(s); err != nil {
		return err
	}
	if s.GetJobs() < 0 {
		return fmt.Errorf("invalid number of jobs: %d", s.GetJobs())
	}
	if s.GetJobs() == 0 {
		s.SetJobs(runtime.NumCPU())
	}
	if s.GetShowContext() < 0 {
		return fmt.Errorf("invalid number of context lines: %d", s.GetShowContext())
	}
	if *s.MaxAstMemory < 0 {
		return fmt.Errorf("invalid AST memory budget: %d", *s.MaxAstMemory)
	}
	if s.GetAstDir() != "" {
		if info, err := os.Stat(s.GetAstDir()); err != nil || !info.IsDir() {
			return fmt.Errorf("ast dir %s is not a directory", s.GetAstDir())
		}
	}
	if s.GetBaseline() != "" {
		if _, err := os.Stat(s.GetBaseline()); err != nil {
			return fmt.Errorf("baseline: %v", err)
		}
	}
	if s.GetResultsDir() != "" {
		if err := os.MkdirAll(s.GetResultsDir(), os.ModePerm); err != nil {
			return fmt.Errorf("os.MkdirAll: %v", err)
		}
	}
	return nil
}

// InitLogging points glog at the results directory and quiets stderr
// outside debug mode. It must be called after flag.Parse.
func InitLogging(s *SharedOptions) {
	if s.GetResultsDir() != "" {
		if f := flag.Lookup("log_dir"); f != nil && f.Value.String() == "" {
			logDir := filepath.Join(s.GetResultsDir(), "logs")
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				glog.Warningf("failed to create log dir %s: %v", logDir, err)
			} else if err := flag.Set("log_dir", logDir); err != nil {
				glog.Warningf("failed to set log_dir: %v", err)
			}
		}
	}
	if !s.GetDebugMode() {
		if err := flag.Set("stderrthreshold", "FATAL"); err != nil {
			glog.Warningf("failed to set stderrthreshold: %v", err)
		}
	}
}
