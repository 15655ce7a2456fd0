package rbtree

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that no interval starts at the given address.
	ErrNotFound = errors.New("rbtree: no interval at address")

	// ErrInvalidAddress indicates an operation on the null address.
	ErrInvalidAddress = errors.New("rbtree: invalid address")

	// ErrInvariantViolated indicates that the tree failed structural verification.
	ErrInvariantViolated = errors.New("rbtree: red-black invariant violated")
)

// Rule names one structural property checked by Verify.
type Rule string

// Verified rules.
const (
	RuleBSTOrder    Rule = "bst-order"
	RuleRootColor   Rule = "root-color"
	RuleRedRed      Rule = "red-red"
	RuleBlackHeight Rule = "black-height"
	RuleParentLink  Rule = "parent-link"
)

// ValidationError describes the first violated rule found by Verify.
type ValidationError struct {
	Rule    Rule
	Message string
	Address uint64
}

func (e *ValidationError) Error() string {
	if e.Address != NullAddress {
		return fmt.Sprintf("%s at address 0x%X: %s", e.Rule, e.Address, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

// Unwrap lets errors.Is match ErrInvariantViolated.
func (e *ValidationError) Unwrap() error {
	return ErrInvariantViolated
}
