package shared

import "strings"

// Specification encapsulates a business rule for selecting entities.
// IsSatisfiedBy evaluates it in memory; Clause renders the same rule as a
// parameterized SQL condition ("" means no SQL filter). Values always travel
// in args, never inside the clause text.
type Specification[T any] interface {
	IsSatisfiedBy(entity T) bool
	Clause() (string, []any)
}

// ============================================================================
// Composite Specifications
// ============================================================================

// AndSpecification represents the logical AND of two specifications
type AndSpecification[T any] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (spec AndSpecification[T]) IsSatisfiedBy(entity T) bool {
	return spec.Left.IsSatisfiedBy(entity) && spec.Right.IsSatisfiedBy(entity)
}

func (spec AndSpecification[T]) Clause() (string, []any) {
	return joinClauses("AND", spec.Left, spec.Right)
}

// And creates a new AndSpecification
func And[T any](left, right Specification[T]) Specification[T] {
	return AndSpecification[T]{Left: left, Right: right}
}

// OrSpecification represents the logical OR of two specifications
type OrSpecification[T any] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (spec OrSpecification[T]) IsSatisfiedBy(entity T) bool {
	return spec.Left.IsSatisfiedBy(entity) || spec.Right.IsSatisfiedBy(entity)
}

func (spec OrSpecification[T]) Clause() (string, []any) {
	left, _ := spec.Left.Clause()
	right, _ := spec.Right.Clause()
	// An unconstrained side makes the disjunction unconstrained.
	if left == "" || right == "" {
		return "", nil
	}
	return joinClauses("OR", spec.Left, spec.Right)
}

// Or creates a new OrSpecification
func Or[T any](left, right Specification[T]) Specification[T] {
	return OrSpecification[T]{Left: left, Right: right}
}

// NotSpecification represents the logical NOT of a specification
type NotSpecification[T any] struct {
	Spec Specification[T]
}

func (spec NotSpecification[T]) IsSatisfiedBy(entity T) bool {
	return !spec.Spec.IsSatisfiedBy(entity)
}

func (spec NotSpecification[T]) Clause() (string, []any) {
	clause, args := spec.Spec.Clause()
	if clause == "" {
		return "", nil
	}
	return "NOT (" + clause + ")", args
}

// Not creates a new NotSpecification
func Not[T any](inner Specification[T]) Specification[T] {
	return NotSpecification[T]{Spec: inner}
}

// All matches every entity.
func All[T any]() Specification[T] { return allSpecification[T]{} }

type allSpecification[T any] struct{}

func (allSpecification[T]) IsSatisfiedBy(T) bool    { return true }
func (allSpecification[T]) Clause() (string, []any) { return "", nil }

func joinClauses[T any](op string, specs ...Specification[T]) (string, []any) {
	var parts []string
	var args []any
	for _, s := range specs {
		clause, a := s.Clause()
		if clause == "" {
			continue
		}
		parts = append(parts, "("+clause+")")
		args = append(args, a...)
	}
	return strings.Join(parts, " "+op+" "), args
}
