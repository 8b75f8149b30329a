package reference

import "errors"

var (
	// ErrWalkFailed indicates traversal of the reference tree failed.
	ErrWalkFailed = errors.New("reference directory walk failed")

	// ErrDescriptorRead indicates a descriptor file could not be read.
	ErrDescriptorRead = errors.New("reference descriptor read failed")

	// ErrDescriptorParse indicates a descriptor file is not valid YAML.
	ErrDescriptorParse = errors.New("reference descriptor parse failed")
)
