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

// Package ast is the read-only node model the visitor walks. A tree is built
// once per translation unit by a host adapter and never modified afterwards;
// checks annotate side tables keyed by node ID instead.
package ast

import (
	"fmt"

	"naive.systems/bdeverify/cruleslib/location"
)

// Node is one declaration or statement. ID is unique within a tree and
// stable for the tree's lifetime.
type Node struct {
	ID       int
	Kind     Kind
	RawKind  string
	Name     string
	Loc      location.Location
	Range    location.Range
	Implicit bool
	// Attrs holds host properties that have no dedicated field, such as
	// "tagUsed", "storageClass", "opcode" or attribute kinds.
	Attrs    map[string]string
	Children []*Node
}

func (n *Node) IsDecl() bool {
	return n != nil && n.Kind.Family() == DeclFamily
}

func (n *Node) IsStmt() bool {
	return n != nil && n.Kind.Family() == StmtFamily
}

// Is reports whether n is of kind k or a kind derived from it.
func (n *Node) Is(k Kind) bool {
	return n != nil && n.Kind.IsA(k)
}

// Attr returns the named host property, or "".
func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

func (n *Node) SetAttr(key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// Location returns the node's anchor location, falling back to the start of
// its range.
func (n *Node) Location() location.Location {
	if n.Loc.IsValid() {
		return n.Loc
	}
	return n.Range.From
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	name := n.Kind.String()
	if n.RawKind != "" && n.RawKind != name {
		name = n.RawKind
	}
	if n.Name != "" {
		return fmt.Sprintf("%s %q at %v", name, n.Name, n.Location())
	}
	return fmt.Sprintf("%s at %v", name, n.Location())
}

// Inspect calls f for n and its descendants in pre-order. If f returns false
// the children of that node are skipped. The walk keeps its own stack.
func Inspect(n *Node, f func(*Node) bool) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == nil || !f(cur) {
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n *Node) int {
	c := 0
	Inspect(n, func(*Node) bool {
		c++
		return true
	})
	return c
}

// Number assigns pre-order IDs starting at 1 to every node under root.
func Number(root *Node) {
	id := 0
	Inspect(root, func(n *Node) bool {
		id++
		n.ID = id
		return true
	})
}

// ParentMap is the node to parent index over a whole tree.
type ParentMap struct {
	parents map[*Node]*Node
}

func NewParentMap(root *Node) *ParentMap {
	pm := &ParentMap{parents: make(map[*Node]*Node)}
	Inspect(root, func(n *Node) bool {
		for _, c := range n.Children {
			if c != nil {
				pm.parents[c] = n
			}
		}
		return true
	})
	return pm
}

// Parent returns the immediate parent of n, or nil for the root and for
// nodes outside the indexed tree.
func (pm *ParentMap) Parent(n *Node) *Node {
	if pm == nil {
		return nil
	}
	return pm.parents[n]
}

// Ancestor walks outward from the parent of n and returns the first node of
// any of the given kinds. Abstract kinds match their descendants.
func (pm *ParentMap) Ancestor(n *Node, kinds ...Kind) *Node {
	for p := pm.Parent(n); p != nil; p = pm.Parent(p) {
		for _, k := range kinds {
			if p.Kind.IsA(k) {
				return p
			}
		}
	}
	return nil
}

// Path returns the chain from the root down to n, inclusive.
func (pm *ParentMap) Path(n *Node) []*Node {
	var path []*Node
	for p := n; p != nil; p = pm.Parent(p) {
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (pm *ParentMap) Len() int {
	if pm == nil {
		return 0
	}
	return len(pm.parents)
}
