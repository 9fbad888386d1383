// Package common defines shared constants and sentinel errors used across
// the client layers. Callers should use errors.Is to match these values.
package common

import "errors"

// ErrNotFound reports that a requested resource does not exist.
var ErrNotFound = errors.New("not found")
