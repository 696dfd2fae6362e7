package radlr

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the fatal error kinds the builder surfaces (spec §7).
type ErrorKind int

const (
	// ErrNonDeterministicPeek: no successor was produced at a peek level > 0.
	ErrNonDeterministicPeek ErrorKind = iota
	// ErrMaxKExceeded: peek would require k > config.MaxK.
	ErrMaxKExceeded
	// ErrLeftRecursionWithoutLR: a call path is blocked by a left-recursive
	// non-terminal while ALLOW_LR is false.
	ErrLeftRecursionWithoutLR
	// ErrAmbiguityRequiresFork: multiple resolutions survive peek while
	// ALLOW_CONTEXT_SPLITTING is false.
	ErrAmbiguityRequiresFork
	// ErrInvalidGenerics: a scanner cannot distinguish two class symbols
	// under occlusion without more precedence.
	ErrInvalidGenerics
	// ErrTerminalConflict: two terminals collide in a scanner group with
	// equal precedence and no occlusion resolution.
	ErrTerminalConflict
	// ErrRecursionLimitExceeded: an implementation-defined cap on pending
	// states was reached.
	ErrRecursionLimitExceeded
	// ErrEmitConstraintExceeded: hash-branch limits were reached and vector
	// fallback was also disallowed or impossible.
	ErrEmitConstraintExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNonDeterministicPeek:
		return "NonDeterministicPeek"
	case ErrMaxKExceeded:
		return "MaxKExceeded"
	case ErrLeftRecursionWithoutLR:
		return "LeftRecursionWithoutLR"
	case ErrAmbiguityRequiresFork:
		return "AmbiguityRequiresFork"
	case ErrInvalidGenerics:
		return "InvalidGenerics"
	case ErrTerminalConflict:
		return "TerminalConflict"
	case ErrRecursionLimitExceeded:
		return "RecursionLimitExceeded"
	case ErrEmitConstraintExceeded:
		return "EmitConstraintExceeded"
	default:
		return "Unknown"
	}
}

// sentinels, one per kind, so callers can write
// errors.Is(err, radlr.ErrNonDeterministicPeekSentinel) and the like.
var (
	ErrNonDeterministicPeekSentinel    = errors.New("non-deterministic peek")
	ErrMaxKExceededSentinel            = errors.New("max_k exceeded")
	ErrLeftRecursionWithoutLRSentinel  = errors.New("left recursion without LR")
	ErrAmbiguityRequiresForkSentinel   = errors.New("ambiguity requires fork")
	ErrInvalidGenericsSentinel         = errors.New("invalid generics")
	ErrTerminalConflictSentinel        = errors.New("terminal conflict")
	ErrRecursionLimitExceededSentinel  = errors.New("recursion limit exceeded")
	ErrEmitConstraintExceededSentinel  = errors.New("emit constraint exceeded")
)

var sentinelByKind = map[ErrorKind]error{
	ErrNonDeterministicPeek:   ErrNonDeterministicPeekSentinel,
	ErrMaxKExceeded:           ErrMaxKExceededSentinel,
	ErrLeftRecursionWithoutLR: ErrLeftRecursionWithoutLRSentinel,
	ErrAmbiguityRequiresFork:  ErrAmbiguityRequiresForkSentinel,
	ErrInvalidGenerics:        ErrInvalidGenericsSentinel,
	ErrTerminalConflict:       ErrTerminalConflictSentinel,
	ErrRecursionLimitExceeded: ErrRecursionLimitExceededSentinel,
	ErrEmitConstraintExceeded: ErrEmitConstraintExceededSentinel,
}

// BuildError is the error type returned by the graph builder and bytecode
// emitter. It wraps one of the sentinel errors above so that callers can
// use errors.Is, and carries enough context (a culprit symbol/item
// description and the owning non-terminal) to locate the offending grammar
// construct without a full diagnostics-rendering layer (which is out of
// scope).
type BuildError struct {
	Kind    ErrorKind
	NonTerm string // the non-terminal whose compile task raised the error
	Culprit string // a short description of the offending item/symbol/state
	Detail  string
}

func (e *BuildError) Error() string {
	if e.Culprit != "" {
		return fmt.Sprintf("%s: %s (in %s): %s", e.Kind, e.Culprit, e.NonTerm, e.Detail)
	}
	return fmt.Sprintf("%s (in %s): %s", e.Kind, e.NonTerm, e.Detail)
}

func (e *BuildError) Unwrap() error {
	return sentinelByKind[e.Kind]
}

// NewBuildError constructs a BuildError for kind, attributing it to
// nonterm with a human-readable detail message.
func NewBuildError(kind ErrorKind, nonterm, culprit, detail string) *BuildError {
	return &BuildError{Kind: kind, NonTerm: nonterm, Culprit: culprit, Detail: detail}
}
