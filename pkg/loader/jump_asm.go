//go:build amd64 || arm64

package loader

const canJump = true

// jump branches to addr without setting up a frame or a return address.
//
//go:noescape
func jump(addr uintptr)
