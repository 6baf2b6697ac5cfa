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
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFrontendArgs(t *testing.T) {
	for _, testCase := range [...]struct {
		name     string
		cc       CompileCommand
		expected []string
	}{
		{
			name: "command",
			cc: CompileCommand{
				Command:   `clang++ -std=c++17 -Iinclude -I /abs -DNAME="a b" -c -o out/a.o a.cpp`,
				File:      "a.cpp",
				Directory: "/src",
			},
			expected: []string{"-std=c++17", "-I/src/include", "-I", "/abs", "-DNAME=a b"},
		},
		{
			name: "arguments",
			cc: CompileCommand{
				Arguments: []string{"g++", "-isystem", "sys", "-MD", "-MF", "a.d", "-o", "a.o", "/src/a.cpp"},
				File:      "/src/a.cpp",
				Directory: "/src",
			},
			expected: []string{"-isystem", "/src/sys"},
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			args, err := testCase.cc.FrontendArgs()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(args, testCase.expected) {
				t.Errorf("unexpected args for %v. got: %v. expected: %v.", testCase.name, args, testCase.expected)
			}
		})
	}
}

func TestIncludeDirs(t *testing.T) {
	cc := CompileCommand{Command: "cc -Ia -I b -isystem c -iquote d x.cpp", File: "x.cpp", Directory: "/w"}
	user, system, err := cc.IncludeDirs()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(user, []string{"/w/a", "/w/b", "/w/d"}) {
		t.Errorf("unexpected user dirs %v", user)
	}
	if !reflect.DeepEqual(system, []string{"/w/c"}) {
		t.Errorf("unexpected system dirs %v", system)
	}
}

func TestReadCompileCommandsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compile_commands.json")
	content := `[
  {"directory": "/src", "command": "clang++ -c a.cpp", "file": "a.cpp"},
  {"directory": "/src", "arguments": ["clang++", "-cc1", "a.cpp"], "file": "/src/a.cpp"},
  {"directory": "/src", "command": "clang++ -c b.cpp", "file": "b.cpp"}
]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	commands, err := ReadCompileCommandsFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(*commands) != 3 || !(*commands)[1].ContainsCC1() || (*commands)[0].ContainsCC1() {
		t.Fatalf("unexpected commands %+v", *commands)
	}
	unique := Unique(*commands)
	if len(unique) != 2 || unique[0].Path() != "/src/a.cpp" || unique[1].Path() != "/src/b.cpp" {
		t.Errorf("unexpected unique commands %+v", unique)
	}
}
