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

package runner

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"

	"naive.systems/bdeverify/cpumem"
	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/basic"
	"naive.systems/bdeverify/cruleslib/clangjson"
	"naive.systems/bdeverify/cruleslib/compilecommand"
)

// A decoded tree takes several times the memory of its JSON text.
const astMemoryFactor = 4

type TranslationUnit struct {
	File      string
	Directory string
	// Args are the frontend arguments, without the compiler and File.
	Args        []string
	IncludeDirs []string
	SystemDirs  []string
}

// FromCompileCommand builds the translation unit compiled by cc. extraArgs
// are appended to the command's own arguments.
func FromCompileCommand(cc compilecommand.CompileCommand, extraArgs []string) (TranslationUnit, error) {
	args, err := cc.FrontendArgs()
	if err != nil {
		return TranslationUnit{}, err
	}
	user, system, err := cc.IncludeDirs()
	if err != nil {
		return TranslationUnit{}, err
	}
	return TranslationUnit{
		File:        cc.Path(),
		Directory:   cc.Directory,
		Args:        append(args, extraArgs...),
		IncludeDirs: user,
		SystemDirs:  system,
	}, nil
}

// FromFile builds a translation unit for a file named on the command line.
func FromFile(file string, args, includeDirs, systemDirs []string) (TranslationUnit, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return TranslationUnit{}, fmt.Errorf("filepath.Abs: %v", err)
	}
	tu := TranslationUnit{
		File:        abs,
		Directory:   filepath.Dir(abs),
		IncludeDirs: includeDirs,
		SystemDirs:  systemDirs,
	}
	tu.Args = append(tu.Args, args...)
	for _, d := range includeDirs {
		tu.Args = append(tu.Args, "-I", d)
	}
	for _, d := range systemDirs {
		tu.Args = append(tu.Args, "-isystem", d)
	}
	return tu, nil
}

type ASTOptions struct {
	ClangBin string
	// AstDir holds pre-dumped trees; clang is not run when it is set.
	AstDir  string
	Timeout time.Duration
	// MemoryPerTU is the KB reserved while clang runs. Trees read from
	// AstDir reserve in proportion to their size instead.
	MemoryPerTU int
	// Pool defaults to the cpumem package pool.
	Pool *cpumem.Pool
}

func (o ASTOptions) acquire(mem int, task string) (release func(), err error) {
	if o.Pool != nil {
		mem = o.Pool.Clamp(mem)
		if err := o.Pool.Acquire(1, mem, task); err != nil {
			return nil, err
		}
		return func() { o.Pool.Release(1, mem) }, nil
	}
	if total := cpumem.GetTotalMem(); total > 0 && mem > total {
		mem = total
	}
	if err := cpumem.Acquire(1, mem, task); err != nil {
		return nil, err
	}
	return func() { cpumem.Release(1, mem) }, nil
}

// DumpPath returns where a pre-dumped tree of file is looked up:
// <AstDir>/<base name without extension>.json.
func (o ASTOptions) DumpPath(file string) string {
	base := filepath.Base(file)
	return filepath.Join(o.AstDir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
}

// ClangArgs returns the clang command line that dumps the tree of tu.
func (o ASTOptions) ClangArgs(tu TranslationUnit) []string {
	args := append([]string{}, tu.Args...)
	args = append(args, "-fsyntax-only", "-Xclang", "-ast-dump=json", tu.File)
	return args
}

// LoadAST returns the tree of tu, read from AstDir or dumped by clang. keep
// restricts the top-level declarations kept, as clangjson.KeepFiles.
func LoadAST(tu TranslationUnit, o ASTOptions, keep func(file string) bool) (*ast.Node, error) {
	var opts []clangjson.Option
	if keep != nil {
		opts = append(opts, clangjson.KeepFiles(keep))
	}
	if o.AstDir != "" {
		path := o.DumpPath(tu.File)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("no AST dump for %s: %v", tu.File, err)
		}
		release, err := o.acquire(int(info.Size()/1024)*astMemoryFactor, tu.File)
		if err != nil {
			return nil, err
		}
		defer release()
		return clangjson.DecodeFile(path, opts...)
	}

	release, err := o.acquire(o.MemoryPerTU, tu.File)
	if err != nil {
		return nil, err
	}
	defer release()
	cmd := exec.Command(o.ClangBin, o.ClangArgs(tu)...)
	cmd.Dir = tu.Directory
	glog.Info("executing: ", cmd.String())
	stdout, stderr, err := basic.Output(cmd, tu.File, o.Timeout)
	if err != nil {
		// clang still dumps the tree of a unit with errors
		if len(stdout) == 0 {
			return nil, fmt.Errorf("%s: %v\n%s", o.ClangBin, err, stderr)
		}
		glog.Warningf("in %s, executing: %s, reported:\n%s\n%v", tu.File, cmd.String(), stderr, err)
	}
	return clangjson.Decode(bytes.NewReader(stdout), opts...)
}
