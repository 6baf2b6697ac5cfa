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
	"reflect"
	"runtime"
	"testing"
)

func TestNewSharedOptionsFromFlagSet(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	opts := NewSharedOptionsFromFlagSet(fs)
	err := fs.Parse([]string{
		"-config", "a.cfg", "-config", "b.yaml",
		"-cl", "check long-lines off",
		"-I", "include", "-isystem", "/usr/include",
		"-clang_args", `-std=c++20 -DNAME="a b"`,
		"-component_only=false",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts.GetConfigFiles(), ArrayFlags{"a.cfg", "b.yaml"}) {
		t.Errorf("unexpected config files %v", opts.GetConfigFiles())
	}
	if !reflect.DeepEqual(opts.GetConfigLines(), ArrayFlags{"check long-lines off"}) {
		t.Errorf("unexpected config lines %v", opts.GetConfigLines())
	}
	if opts.GetComponentOnly() {
		t.Errorf("component_only should be disabled")
	}
	args, err := ParseClangArgs(opts)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(args, []string{"-std=c++20", "-DNAME=a b"}) {
		t.Errorf("unexpected clang args %v", args)
	}
	if err := CheckSharedOptions(opts); err != nil {
		t.Fatal(err)
	}
	if opts.GetJobs() != runtime.NumCPU() {
		t.Errorf("jobs = %d, expected %d", opts.GetJobs(), runtime.NumCPU())
	}
}

func TestCheckSharedOptions(t *testing.T) {
	for _, testCase := range [...]struct {
		name string
		args []string
	}{
		{name: "negative jobs", args: []string{"-jobs", "-1"}},
		{name: "unbalanced quote", args: []string{"-clang_args", `"-std=c++17`}},
		{name: "missing ast dir", args: []string{"-ast_dir", "/nonexistent/ast"}},
		{name: "missing baseline", args: []string{"-baseline", "/nonexistent/results.json"}},
		{name: "negative context", args: []string{"-show_context", "-2"}},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			opts := NewSharedOptionsFromFlagSet(fs)
			if err := fs.Parse(testCase.args); err != nil {
				t.Fatal(err)
			}
			if err := CheckSharedOptions(opts); err == nil {
				t.Errorf("expected an error for %v", testCase.args)
			}
		})
	}
}
