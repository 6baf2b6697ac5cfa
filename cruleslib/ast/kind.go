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

package ast

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Family separates the two node hierarchies. They are walked with different
// child-iteration rules, so every Kind belongs to exactly one of them.
type Family uint8

const (
	DeclFamily Family = iota
	StmtFamily
)

func (f Family) String() string {
	if f == DeclFamily {
		return "Decl"
	}
	return "Stmt"
}

// Kind identifies a concrete or abstract node kind. Abstract kinds never
// appear on a Node; they only exist so that handlers can subscribe to a whole
// subtree of the hierarchy (every TagDecl, every Expr, ...).
type Kind uint16

const (
	Decl Kind = iota
	TranslationUnitDecl
	NamespaceDecl
	NamespaceAliasDecl
	LinkageSpecDecl
	UsingDirectiveDecl
	UsingDecl
	UsingShadowDecl
	TypedefNameDecl
	TypedefDecl
	TypeAliasDecl
	TagDecl
	RecordDecl
	CXXRecordDecl
	ClassTemplateSpecializationDecl
	ClassTemplatePartialSpecializationDecl
	EnumDecl
	EnumConstantDecl
	DeclaratorDecl
	FunctionDecl
	CXXMethodDecl
	CXXConstructorDecl
	CXXDestructorDecl
	CXXConversionDecl
	VarDecl
	ParmVarDecl
	FieldDecl
	IndirectFieldDecl
	TemplateDecl
	FunctionTemplateDecl
	ClassTemplateDecl
	TypeAliasTemplateDecl
	VarTemplateDecl
	TemplateTypeParmDecl
	NonTypeTemplateParmDecl
	TemplateTemplateParmDecl
	FriendDecl
	AccessSpecDecl
	StaticAssertDecl
	EmptyDecl
	UnknownDecl

	Stmt
	CompoundStmt
	DeclStmt
	ReturnStmt
	IfStmt
	WhileStmt
	DoStmt
	ForStmt
	CXXForRangeStmt
	SwitchStmt
	SwitchCase
	CaseStmt
	DefaultStmt
	BreakStmt
	ContinueStmt
	GotoStmt
	LabelStmt
	NullStmt
	CXXTryStmt
	CXXCatchStmt
	Expr
	CallExpr
	CXXMemberCallExpr
	CXXOperatorCallExpr
	DeclRefExpr
	MemberExpr
	BinaryOperator
	CompoundAssignOperator
	UnaryOperator
	CastExpr
	ImplicitCastExpr
	CStyleCastExpr
	CXXStaticCastExpr
	CXXFunctionalCastExpr
	ParenExpr
	ConditionalOperator
	IntegerLiteral
	FloatingLiteral
	StringLiteral
	CharacterLiteral
	CXXBoolLiteralExpr
	CXXNullPtrLiteralExpr
	CXXThisExpr
	CXXConstructExpr
	CXXNewExpr
	CXXDeleteExpr
	CXXThrowExpr
	LambdaExpr
	InitListExpr
	ArraySubscriptExpr
	UnaryExprOrTypeTraitExpr
	UnknownStmt

	numKinds
)

type kindInfo struct {
	name     string
	family   Family
	parent   Kind
	abstract bool
}

// kinds is the single table every lookup goes through. Adding a kind means
// adding a constant above and one row here.
var kinds = [numKinds]kindInfo{
	Decl:                                   {"Decl", DeclFamily, Decl, true},
	TranslationUnitDecl:                    {"TranslationUnitDecl", DeclFamily, Decl, false},
	NamespaceDecl:                          {"NamespaceDecl", DeclFamily, Decl, false},
	NamespaceAliasDecl:                     {"NamespaceAliasDecl", DeclFamily, Decl, false},
	LinkageSpecDecl:                        {"LinkageSpecDecl", DeclFamily, Decl, false},
	UsingDirectiveDecl:                     {"UsingDirectiveDecl", DeclFamily, Decl, false},
	UsingDecl:                              {"UsingDecl", DeclFamily, Decl, false},
	UsingShadowDecl:                        {"UsingShadowDecl", DeclFamily, Decl, false},
	TypedefNameDecl:                        {"TypedefNameDecl", DeclFamily, Decl, true},
	TypedefDecl:                            {"TypedefDecl", DeclFamily, TypedefNameDecl, false},
	TypeAliasDecl:                          {"TypeAliasDecl", DeclFamily, TypedefNameDecl, false},
	TagDecl:                                {"TagDecl", DeclFamily, Decl, true},
	RecordDecl:                             {"RecordDecl", DeclFamily, TagDecl, false},
	CXXRecordDecl:                          {"CXXRecordDecl", DeclFamily, RecordDecl, false},
	ClassTemplateSpecializationDecl:        {"ClassTemplateSpecializationDecl", DeclFamily, CXXRecordDecl, false},
	ClassTemplatePartialSpecializationDecl: {"ClassTemplatePartialSpecializationDecl", DeclFamily, ClassTemplateSpecializationDecl, false},
	EnumDecl:                               {"EnumDecl", DeclFamily, TagDecl, false},
	EnumConstantDecl:                       {"EnumConstantDecl", DeclFamily, Decl, false},
	DeclaratorDecl:                         {"DeclaratorDecl", DeclFamily, Decl, true},
	FunctionDecl:                           {"FunctionDecl", DeclFamily, DeclaratorDecl, false},
	CXXMethodDecl:                          {"CXXMethodDecl", DeclFamily, FunctionDecl, false},
	CXXConstructorDecl:                     {"CXXConstructorDecl", DeclFamily, CXXMethodDecl, false},
	CXXDestructorDecl:                      {"CXXDestructorDecl", DeclFamily, CXXMethodDecl, false},
	CXXConversionDecl:                      {"CXXConversionDecl", DeclFamily, CXXMethodDecl, false},
	VarDecl:                                {"VarDecl", DeclFamily, DeclaratorDecl, false},
	ParmVarDecl:                            {"ParmVarDecl", DeclFamily, VarDecl, false},
	FieldDecl:                              {"FieldDecl", DeclFamily, DeclaratorDecl, false},
	IndirectFieldDecl:                      {"IndirectFieldDecl", DeclFamily, Decl, false},
	TemplateDecl:                           {"TemplateDecl", DeclFamily, Decl, true},
	FunctionTemplateDecl:                   {"FunctionTemplateDecl", DeclFamily, TemplateDecl, false},
	ClassTemplateDecl:                      {"ClassTemplateDecl", DeclFamily, TemplateDecl, false},
	TypeAliasTemplateDecl:                  {"TypeAliasTemplateDecl", DeclFamily, TemplateDecl, false},
	VarTemplateDecl:                        {"VarTemplateDecl", DeclFamily, TemplateDecl, false},
	TemplateTypeParmDecl:                   {"TemplateTypeParmDecl", DeclFamily, Decl, false},
	NonTypeTemplateParmDecl:                {"NonTypeTemplateParmDecl", DeclFamily, DeclaratorDecl, false},
	TemplateTemplateParmDecl:               {"TemplateTemplateParmDecl", DeclFamily, TemplateDecl, false},
	FriendDecl:                             {"FriendDecl", DeclFamily, Decl, false},
	AccessSpecDecl:                         {"AccessSpecDecl", DeclFamily, Decl, false},
	StaticAssertDecl:                       {"StaticAssertDecl", DeclFamily, Decl, false},
	EmptyDecl:                              {"EmptyDecl", DeclFamily, Decl, false},
	UnknownDecl:                            {"UnknownDecl", DeclFamily, Decl, false},

	Stmt:                     {"Stmt", StmtFamily, Stmt, true},
	CompoundStmt:             {"CompoundStmt", StmtFamily, Stmt, false},
	DeclStmt:                 {"DeclStmt", StmtFamily, Stmt, false},
	ReturnStmt:               {"ReturnStmt", StmtFamily, Stmt, false},
	IfStmt:                   {"IfStmt", StmtFamily, Stmt, false},
	WhileStmt:                {"WhileStmt", StmtFamily, Stmt, false},
	DoStmt:                   {"DoStmt", StmtFamily, Stmt, false},
	ForStmt:                  {"ForStmt", StmtFamily, Stmt, false},
	CXXForRangeStmt:          {"CXXForRangeStmt", StmtFamily, Stmt, false},
	SwitchStmt:               {"SwitchStmt", StmtFamily, Stmt, false},
	SwitchCase:               {"SwitchCase", StmtFamily, Stmt, true},
	CaseStmt:                 {"CaseStmt", StmtFamily, SwitchCase, false},
	DefaultStmt:              {"DefaultStmt", StmtFamily, SwitchCase, false},
	BreakStmt:                {"BreakStmt", StmtFamily, Stmt, false},
	ContinueStmt:             {"ContinueStmt", StmtFamily, Stmt, false},
	GotoStmt:                 {"GotoStmt", StmtFamily, Stmt, false},
	LabelStmt:                {"LabelStmt", StmtFamily, Stmt, false},
	NullStmt:                 {"NullStmt", StmtFamily, Stmt, false},
	CXXTryStmt:               {"CXXTryStmt", StmtFamily, Stmt, false},
	CXXCatchStmt:             {"CXXCatchStmt", StmtFamily, Stmt, false},
	Expr:                     {"Expr", StmtFamily, Stmt, true},
	CallExpr:                 {"CallExpr", StmtFamily, Expr, false},
	CXXMemberCallExpr:        {"CXXMemberCallExpr", StmtFamily, CallExpr, false},
	CXXOperatorCallExpr:      {"CXXOperatorCallExpr", StmtFamily, CallExpr, false},
	DeclRefExpr:              {"DeclRefExpr", StmtFamily, Expr, false},
	MemberExpr:               {"MemberExpr", StmtFamily, Expr, false},
	BinaryOperator:           {"BinaryOperator", StmtFamily, Expr, false},
	CompoundAssignOperator:   {"CompoundAssignOperator", StmtFamily, BinaryOperator, false},
	UnaryOperator:            {"UnaryOperator", StmtFamily, Expr, false},
	CastExpr:                 {"CastExpr", StmtFamily, Expr, true},
	ImplicitCastExpr:         {"ImplicitCastExpr", StmtFamily, CastExpr, false},
	CStyleCastExpr:           {"CStyleCastExpr", StmtFamily, CastExpr, false},
	CXXStaticCastExpr:        {"CXXStaticCastExpr", StmtFamily, CastExpr, false},
	CXXFunctionalCastExpr:    {"CXXFunctionalCastExpr", StmtFamily, CastExpr, false},
	ParenExpr:                {"ParenExpr", StmtFamily, Expr, false},
	ConditionalOperator:      {"ConditionalOperator", StmtFamily, Expr, false},
	IntegerLiteral:           {"IntegerLiteral", StmtFamily, Expr, false},
	FloatingLiteral:          {"FloatingLiteral", StmtFamily, Expr, false},
	StringLiteral:            {"StringLiteral", StmtFamily, Expr, false},
	CharacterLiteral:         {"CharacterLiteral", StmtFamily, Expr, false},
	CXXBoolLiteralExpr:       {"CXXBoolLiteralExpr", StmtFamily, Expr, false},
	CXXNullPtrLiteralExpr:    {"CXXNullPtrLiteralExpr", StmtFamily, Expr, false},
	CXXThisExpr:              {"CXXThisExpr", StmtFamily, Expr, false},
	CXXConstructExpr:         {"CXXConstructExpr", StmtFamily, Expr, false},
	CXXNewExpr:               {"CXXNewExpr", StmtFamily, Expr, false},
	CXXDeleteExpr:            {"CXXDeleteExpr", StmtFamily, Expr, false},
	CXXThrowExpr:             {"CXXThrowExpr", StmtFamily, Expr, false},
	LambdaExpr:               {"LambdaExpr", StmtFamily, Expr, false},
	InitListExpr:             {"InitListExpr", StmtFamily, Expr, false},
	ArraySubscriptExpr:       {"ArraySubscriptExpr", StmtFamily, Expr, false},
	UnaryExprOrTypeTraitExpr: {"UnaryExprOrTypeTraitExpr", StmtFamily, Expr, false},
	UnknownStmt:              {"UnknownStmt", StmtFamily, Stmt, false},
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		m[kinds[k].name] = k
	}
	return m
}()

var lineages = func() [numKinds][]Kind {
	var out [numKinds][]Kind
	for k := Kind(0); k < numKinds; k++ {
		var chain []Kind
		for c := k; ; {
			chain = append(chain, c)
			p := kinds[c].parent
			if p == c {
				break
			}
			c = p
		}
		slices.Reverse(chain)
		out[k] = slices.Clip(chain)
	}
	return out
}()

// NumKinds is the size of a table indexed by Kind.
const NumKinds = int(numKinds)

func (k Kind) String() string {
	if k >= numKinds {
		return "Kind(?)"
	}
	return kinds[k].name
}

func (k Kind) Family() Family {
	return kinds[k].family
}

// Root returns the family root kind, Decl or Stmt.
func (k Kind) Root() Kind {
	if kinds[k].family == DeclFamily {
		return Decl
	}
	return Stmt
}

func (k Kind) Abstract() bool {
	return kinds[k].abstract
}

// Parent returns the next more general kind. Family roots are their own
// parent.
func (k Kind) Parent() Kind {
	return kinds[k].parent
}

// IsA reports whether k is base or derives from it.
func (k Kind) IsA(base Kind) bool {
	for {
		if k == base {
			return true
		}
		p := kinds[k].parent
		if p == k {
			return false
		}
		k = p
	}
}

// Lineage returns the kinds from the family root down to k, inclusive. The
// slice is shared and must not be modified.
func (k Kind) Lineage() []Kind {
	return lineages[k]
}

// KindFromName maps a host kind name to a Kind. Abstract names are not
// accepted, and unknown names fall back to UnknownDecl or UnknownStmt so the
// node still reaches the family-root handlers.
func KindFromName(name string) Kind {
	if k, ok := kindsByName[name]; ok && !kinds[k].abstract {
		return k
	}
	if strings.HasSuffix(name, "Decl") {
		return UnknownDecl
	}
	return UnknownStmt
}

// LookupKind returns the kind named name, abstract kinds included.
func LookupKind(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}
