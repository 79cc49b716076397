package model

import (
	"fmt"
	"strings"
)

// Expr is a typed parameter expression. References are resolved when the
// expression is built, not parsed from text at evaluation time.
type Expr interface {
	Eval(ps ParamSet) float64
	String() string
}

// ParamRef is a typed handle to a named parameter
type ParamRef struct {
	name string
}

// P creates a reference to a named parameter
func P(name string) ParamRef {
	return ParamRef{name: name}
}

// Name returns the referenced parameter name
func (r ParamRef) Name() string {
	return r.name
}

func (r ParamRef) Eval(ps ParamSet) float64 {
	return ps.at(r.name)
}

func (r ParamRef) String() string {
	return r.name
}

type ConstExpr float64

// C creates a constant expression
func C(value float64) Expr {
	return ConstExpr(value)
}

func (c ConstExpr) Eval(ParamSet) float64 {
	return float64(c)
}

func (c ConstExpr) String() string {
	return fmt.Sprintf("%g", float64(c))
}

type SumExpr []Expr

// Sum creates the sum of the given expressions
func Sum(terms ...Expr) Expr {
	return SumExpr(terms)
}

func (s SumExpr) Eval(ps ParamSet) float64 {
	total := 0.0
	for _, term := range s {
		total += term.Eval(ps)
	}
	return total
}

func (s SumExpr) String() string {
	return "(" + joinExprs([]Expr(s), " + ") + ")"
}

type ProdExpr []Expr

// Prod creates the product of the given expressions
func Prod(factors ...Expr) Expr {
	return ProdExpr(factors)
}

func (p ProdExpr) Eval(ps ParamSet) float64 {
	total := 1.0
	for _, factor := range p {
		total *= factor.Eval(ps)
	}
	return total
}

func (p ProdExpr) String() string {
	return "(" + joinExprs([]Expr(p), " * ") + ")"
}

func joinExprs(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}
