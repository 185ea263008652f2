//go:build !linux

package loader

func verifyMapping(*Mapping) error { return errUnsupported }
