//go:build amd64

// Package cpuwidth picks the SIMD word width used to pad bit-packed rows.
package cpuwidth

import "golang.org/x/sys/cpu"

// Bits returns the widest vector register width detected on this machine,
// falling back to a safe 128 bits when nothing wider is available. Callers
// round buffer sizes up to this width; no code path in this module actually
// issues vector instructions at that width (see internal/avogen).
func Bits() int {
	switch {
	case cpu.X86.HasAVX512F:
		return 512
	case cpu.X86.HasAVX2:
		return 256
	case cpu.X86.HasSSE2:
		return 128
	default:
		return 128
	}
}
