package util

import "errors"

var (
	// ErrCorrupt marks an extraction document that could not be decoded.
	ErrCorrupt = errors.New("corrupt file")

	// ErrVerifyMismatch marks an archived copy whose size or content hash
	// does not match the original.
	ErrVerifyMismatch = errors.New("verification mismatch")
)
