//go:build !amd64 && !arm64

package loader

const canJump = false

func jump(uintptr) { panic("BUG: jump called on an unsupported architecture") }
