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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v2"
)

// fileConfig is the structured form of a configuration file. Each field is
// translated into configuration lines.
type fileConfig struct {
	Load      []string            `yaml:"load" toml:"load"`
	Namespace string              `yaml:"namespace" toml:"namespace"`
	All       *bool               `yaml:"all" toml:"all"`
	Groups    map[string][]string `yaml:"groups" toml:"groups"`
	Checks    map[string]bool     `yaml:"checks" toml:"checks"`
	Set       map[string]string   `yaml:"set" toml:"set"`
	Append    map[string]string   `yaml:"append" toml:"append"`
	Suppress  map[string][]string `yaml:"suppress" toml:"suppress"`
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t'\"\\#") {
		return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
	}
	return s
}

// lines renders fc in the order a hand-written file would use: loads first,
// then groups before the checks that may name them.
func (fc *fileConfig) lines() []string {
	var out []string
	for _, l := range fc.Load {
		out = append(out, "load "+quote(l))
	}
	if fc.Namespace != "" {
		out = append(out, "namespace "+quote(fc.Namespace))
	}
	if fc.All != nil {
		out = append(out, "all "+onOff(*fc.All))
	}
	for _, g := range sortedKeys(fc.Groups) {
		ms := make([]string, len(fc.Groups[g]))
		for i, m := range fc.Groups[g] {
			ms[i] = quote(m)
		}
		out = append(out, fmt.Sprintf("group %s %s", quote(g), strings.Join(ms, " ")))
	}
	for _, t := range sortedKeys(fc.Checks) {
		out = append(out, fmt.Sprintf("check %s %s", quote(t), onOff(fc.Checks[t])))
	}
	for _, k := range sortedKeys(fc.Set) {
		out = append(out, fmt.Sprintf("set %s %s", quote(k), quote(fc.Set[k])))
	}
	for _, k := range sortedKeys(fc.Append) {
		out = append(out, fmt.Sprintf("append %s %s", quote(k), quote(fc.Append[k])))
	}
	for _, t := range sortedKeys(fc.Suppress) {
		gs := make([]string, len(fc.Suppress[t]))
		for i, g := range fc.Suppress[t] {
			gs[i] = quote(g)
		}
		out = append(out, fmt.Sprintf("suppress %s %s", quote(t), strings.Join(gs, " ")))
	}
	return out
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// LoadFile processes a configuration file. Files ending in .yaml, .yml or
// .toml are read as structured configuration, anything else as lines. A
// failure is returned and also kept for LoadErrors.
func (c *Config) LoadFile(path string) error {
	if slices.Contains(c.loading, path) {
		return c.loadFailed(path, fmt.Errorf("recursive load"))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return c.loadFailed(path, err)
	}
	c.loading = append(c.loading, path)
	defer func() { c.loading = c.loading[:len(c.loading)-1] }()
	glog.V(1).Infof("config: loading %s", path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var fc fileConfig
		if err := yaml.Unmarshal(content, &fc); err != nil {
			return c.loadFailed(path, fmt.Errorf("yaml.Unmarshal: %v", err))
		}
		c.ProcessLines(strings.Join(fc.lines(), "\n"))
	case ".toml":
		var fc fileConfig
		if _, err := toml.Decode(string(content), &fc); err != nil {
			return c.loadFailed(path, fmt.Errorf("toml.Decode: %v", err))
		}
		c.ProcessLines(strings.Join(fc.lines(), "\n"))
	default:
		c.ProcessLines(string(content))
	}
	return nil
}

func (c *Config) loadFailed(path string, err error) error {
	le := LoadError{Path: path, Err: err}
	if len(c.loading) > 0 {
		le.Where = c.loading[len(c.loading)-1]
	}
	c.loadErrors = append(c.loadErrors, le)
	return le
}
