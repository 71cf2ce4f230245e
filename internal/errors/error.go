// Package errors provides custom error types for bank product operations.
package errors

import "errors"

// ErrProductNotFound reports that no bank product exists with the requested ID.
var ErrProductNotFound = errors.New("product not found")
