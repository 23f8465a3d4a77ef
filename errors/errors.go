// Package errors provides error handling for redbike.
//
// This package re-exports a subset of github.com/cockroachdb/errors:
// stack-traced construction and wrapping, Is/As for classification (Is
// is used for redbike.StopWork and redbike.UnsetJob), hint/detail
// annotations, and unwrapping helpers.
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, redbike.StopWork) {
//	    // handle stop-work signal
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
	Is    = crdb.Is
	As    = crdb.As

	WithStack     = crdb.WithStack
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	Unwrap        = crdb.UnwrapOnce
	UnwrapAll     = crdb.UnwrapAll
)
