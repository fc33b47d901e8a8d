// Package utils holds helpers shared by tests. Import it as tu.
package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testT *testing.T

// SetT binds the helpers below to the running test.
func SetT(t *testing.T) {
	testT = t
}

// NoErr unwraps a (value, error) pair, failing the test on error.
func NoErr[T any](v T, err error) T {
	testT.Helper()
	require.NoError(testT, err)
	return v
}

// Err requires a (value, error) pair to carry an error and returns it.
func Err[T any](_ T, err error) error {
	testT.Helper()
	require.Error(testT, err)
	return err
}

// ErrIs requires the error of a (value, error) pair to match target.
func ErrIs[T any](target error) func(T, error) {
	return func(_ T, err error) {
		testT.Helper()
		require.ErrorIs(testT, err, target)
	}
}
