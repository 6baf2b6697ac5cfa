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
Package visitor walks an ast tree depth first and fires typed events.

For every node the visitor fires, in order, the family-root channel (OnDecl or
OnStmt) and then the channel of every kind in the node's lineage from the
most general to the concrete kind. When all children are done the exit
channels fire in the reverse order. How children are reached depends on the
recursion policy of the node's kind.

The walk keeps its own stack, so arbitrarily deep expression trees do not
grow the goroutine stack.
*/
package visitor

import (
	"fmt"

	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/ast"
	"naive.systems/bdeverify/cruleslib/events"
)

// Policy decides which children of a node are visited.
type Policy uint8

const (
	// RecurseAll visits every child in source order.
	RecurseAll Policy = iota
	// RecurseExplicit skips children the host marked implicit, such as the
	// injected class name and compiler-declared special members.
	RecurseExplicit
	// RecursePattern visits template parameters and the templated pattern
	// and skips instantiations.
	RecursePattern
	// RecurseNone visits no children.
	RecurseNone
	policyUnset
)

func (p Policy) String() string {
	switch p {
	case RecurseAll:
		return "all"
	case RecurseExplicit:
		return "explicit"
	case RecursePattern:
		return "pattern"
	case RecurseNone:
		return "none"
	}
	return fmt.Sprintf("Policy(%d)", p)
}

type handlerTable [ast.NumKinds]*events.Channel[*ast.Node]

type frame struct {
	node *ast.Node
	exit bool
}

// Visitor dispatches nodes to subscribed handlers. The zero value is not
// usable; call New.
type Visitor struct {
	OnDecl     *events.Channel[*ast.Node]
	OnStmt     *events.Channel[*ast.Node]
	OnDeclExit *events.Channel[*ast.Node]
	OnStmtExit *events.Channel[*ast.Node]

	enter  handlerTable
	exit   handlerTable
	policy [ast.NumKinds]Policy

	onPanic events.PanicHandler
	path    []*ast.Node
	visited int
}

func New() *Visitor {
	v := &Visitor{
		OnDecl:     events.NewChannel[*ast.Node]("Decl"),
		OnStmt:     events.NewChannel[*ast.Node]("Stmt"),
		OnDeclExit: events.NewChannel[*ast.Node]("Decl/exit"),
		OnStmtExit: events.NewChannel[*ast.Node]("Stmt/exit"),
	}
	v.enter[ast.Decl] = v.OnDecl
	v.enter[ast.Stmt] = v.OnStmt
	v.exit[ast.Decl] = v.OnDeclExit
	v.exit[ast.Stmt] = v.OnStmtExit
	for i := range v.policy {
		v.policy[i] = policyUnset
	}
	v.policy[ast.TranslationUnitDecl] = RecurseExplicit
	v.policy[ast.TagDecl] = RecurseExplicit
	v.policy[ast.TemplateDecl] = RecursePattern
	return v
}

// SetPanicHandler installs h on every channel of v, including channels that
// are created later.
func (v *Visitor) SetPanicHandler(h events.PanicHandler) {
	v.onPanic = h
	for _, t := range []*handlerTable{&v.enter, &v.exit} {
		for _, c := range t {
			if c != nil {
				c.OnPanic = h
			}
		}
	}
}

func (v *Visitor) channel(t *handlerTable, k ast.Kind, suffix string) *events.Channel[*ast.Node] {
	if t[k] == nil {
		t[k] = events.NewChannel[*ast.Node](k.String() + suffix)
		t[k].OnPanic = v.onPanic
	}
	return t[k]
}

// On returns the pre-order channel for kind k. Subscribing to an abstract
// kind sees every node of a derived kind.
func (v *Visitor) On(k ast.Kind) *events.Channel[*ast.Node] {
	return v.channel(&v.enter, k, "")
}

// OnExit returns the post-order channel for kind k.
func (v *Visitor) OnExit(k ast.Kind) *events.Channel[*ast.Node] {
	return v.channel(&v.exit, k, "/exit")
}

// SetPolicy overrides the recursion policy for k and every kind derived
// from it that has no policy of its own.
func (v *Visitor) SetPolicy(k ast.Kind, p Policy) {
	v.policy[k] = p
}

// PolicyFor returns the policy in effect for nodes of kind k.
func (v *Visitor) PolicyFor(k ast.Kind) Policy {
	for {
		if p := v.policy[k]; p != policyUnset {
			return p
		}
		if k.Parent() == k {
			return RecurseAll
		}
		k = k.Parent()
	}
}

// Depth returns the number of nodes on the current path, the node being
// dispatched included.
func (v *Visitor) Depth() int {
	return len(v.path)
}

// Current returns the node being dispatched, or nil outside a walk.
func (v *Visitor) Current() *ast.Node {
	if len(v.path) == 0 {
		return nil
	}
	return v.path[len(v.path)-1]
}

// Ancestors returns the enclosing nodes of the current node, outermost
// first.
func (v *Visitor) Ancestors() []*ast.Node {
	if len(v.path) < 2 {
		return nil
	}
	return append([]*ast.Node(nil), v.path[:len(v.path)-1]...)
}

// Visited returns the number of nodes dispatched so far.
func (v *Visitor) Visited() int {
	return v.visited
}

// Visit walks the tree rooted at root.
func (v *Visitor) Visit(root *ast.Node) {
	if root == nil {
		return
	}
	base := len(v.path)
	work := []frame{{node: root}}
	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]
		if f.exit {
			v.fire(&v.exit, f.node, true)
			v.path = v.path[:len(v.path)-1]
			continue
		}
		v.path = append(v.path, f.node)
		v.visited++
		v.fire(&v.enter, f.node, false)
		work = append(work, frame{node: f.node, exit: true})
		kids := v.children(f.node)
		for i := len(kids) - 1; i >= 0; i-- {
			work = append(work, frame{node: kids[i]})
		}
	}
	if len(v.path) != base {
		glog.Errorf("visitor: path depth %d after walk, want %d", len(v.path), base)
		v.path = v.path[:base]
	}
}

func (v *Visitor) fire(t *handlerTable, n *ast.Node, reverse bool) {
	lineage := n.Kind.Lineage()
	if reverse {
		for i := len(lineage) - 1; i >= 0; i-- {
			if c := t[lineage[i]]; c != nil {
				c.Fire(n)
			}
		}
		return
	}
	for _, k := range lineage {
		if c := t[k]; c != nil {
			c.Fire(n)
		}
	}
}

func (v *Visitor) children(n *ast.Node) []*ast.Node {
	var kids []*ast.Node
	switch v.PolicyFor(n.Kind) {
	case RecurseNone:
		return nil
	case RecurseExplicit:
		for _, c := range n.Children {
			if c != nil && !c.Implicit {
				kids = append(kids, c)
			}
		}
	case RecursePattern:
		pattern := false
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			if isTemplateParam(c.Kind) {
				kids = append(kids, c)
				continue
			}
			if !pattern {
				pattern = true
				kids = append(kids, c)
			}
		}
	default:
		for _, c := range n.Children {
			if c != nil {
				kids = append(kids, c)
			}
		}
	}
	return kids
}

func isTemplateParam(k ast.Kind) bool {
	return k == ast.TemplateTypeParmDecl || k == ast.NonTypeTemplateParmDecl || k == ast.TemplateTemplateParmDecl
}
