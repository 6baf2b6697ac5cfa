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

package compilecommand

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/google/shlex"
)

type CompileCommand struct {
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	File      string   `json:"file"`
	Directory string   `json:"directory"`
	Output    string   `json:"output,omitempty"`
}

const CC1 string = "-cc1"

func (cc CompileCommand) ContainsCC1() bool {
	args, err := cc.Args()
	if err != nil {
		return false
	}
	for _, v := range args {
		if v == CC1 {
			return true
		}
	}
	return false
}

// Args returns the argument vector, splitting Command when Arguments is
// empty.
func (cc CompileCommand) Args() ([]string, error) {
	if len(cc.Arguments) > 0 {
		return cc.Arguments, nil
	}
	args, err := shlex.Split(cc.Command)
	if err != nil {
		return nil, fmt.Errorf("cannot split command of %s: %v", cc.File, err)
	}
	return args, nil
}

// Path returns the absolute path of the main source file.
func (cc CompileCommand) Path() string {
	if filepath.IsAbs(cc.File) {
		return filepath.Clean(cc.File)
	}
	return filepath.Join(cc.Directory, cc.File)
}

// FrontendArgs returns the arguments that affect parsing: the compiler,
// the source file and output options are dropped, and relative include
// directories are made absolute.
func (cc CompileCommand) FrontendArgs() ([]string, error) {
	args, err := cc.Args()
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		args = args[1:]
	}
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-c" || arg == "-MD" || arg == "-MMD":
			continue
		case arg == "-o" || arg == "-MF" || arg == "-MT" || arg == "-MQ":
			i++
			continue
		case strings.HasPrefix(arg, "-o"):
			continue
		case arg == cc.File || filepath.Join(cc.Directory, arg) == cc.Path():
			continue
		case arg == "-I" || arg == "-isystem" || arg == "-iquote":
			if i+1 < len(args) {
				out = append(out, arg, cc.abs(args[i+1]))
				i++
			}
			continue
		case strings.HasPrefix(arg, "-I"):
			out = append(out, "-I"+cc.abs(strings.TrimPrefix(arg, "-I")))
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

// IncludeDirs returns the user and system include directories named by the
// command.
func (cc CompileCommand) IncludeDirs() (user, system []string, err error) {
	args, err := cc.FrontendArgs()
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < len(args); i++ {
		switch {
		case (args[i] == "-I" || args[i] == "-iquote") && i+1 < len(args):
			user = append(user, args[i+1])
			i++
		case args[i] == "-isystem" && i+1 < len(args):
			system = append(system, args[i+1])
			i++
		case strings.HasPrefix(args[i], "-I"):
			user = append(user, strings.TrimPrefix(args[i], "-I"))
		}
	}
	return user, system, nil
}

func (cc CompileCommand) abs(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(cc.Directory, dir)
}

func ReadCompileCommandsFromFile(compileCommandsPath string) (*[]CompileCommand, error) {
	ccFile, err := os.Open(compileCommandsPath)
	if err != nil {
		glog.Error(err)
		return nil, err
	}

	defer ccFile.Close()

	byteContent, err := io.ReadAll(ccFile)
	if err != nil {
		return nil, err
	}

	commands := []CompileCommand{}
	err = json.Unmarshal(byteContent, &commands)
	if err != nil {
		return nil, err
	}

	return &commands, nil
}

// Unique drops later commands for a file already seen, keeping file order.
func Unique(commands []CompileCommand) []CompileCommand {
	seen := make(map[string]bool)
	var out []CompileCommand
	for _, cc := range commands {
		if seen[cc.Path()] {
			continue
		}
		seen[cc.Path()] = true
		out = append(out, cc)
	}
	return out
}
