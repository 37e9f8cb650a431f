package sarg

import (
	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/orcsarg/internal/types"
)

var (
	// ErrTypeMismatch marks a literal that cannot be coerced to the declared leaf type.
	ErrTypeMismatch = types.ErrTypeMismatch
	// ErrMalformedLiteral marks a missing literal, an empty IN list or a BETWEEN
	// without exactly two bounds.
	ErrMalformedLiteral = errors.New("malformed predicate literal")
	// ErrUnbalanced marks start/end calls that do not nest.
	ErrUnbalanced = errors.New("unbalanced expression")
	// ErrEmptyExpression marks a build without any predicate.
	ErrEmptyExpression = errors.New("empty expression")
)
