//go:build !amd64

package cpuwidth

// Bits returns the fixed padding width used on platforms this module has no
// vector-width detection for.
func Bits() int {
	return 128
}
