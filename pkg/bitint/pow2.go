/*
Package bitint provides the power-of-2 helpers used to validate FFT frame
sizes. All operations are O(1), allocation free and safe to call from the
audio callback.

Usage:

	// Suggest a valid frame size to the user
	frameSize := bitint.NextPowerOfTwo(1000) // Returns 1024

	// Verify FFT frame size is valid
	isValid := bitint.IsPowerOfTwo(frameSize)

NextPowerOfTwo relies on the subtraction (size-1) so that exact powers of 2
are preserved: for 8, bits.Len(7) = 3 and 1<<3 = 8, while bits.Len(8) would
be 4 and double the input.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output  Explanation
//	4      4      Already power of 2 (preserved)
//	5      8      Next power after 5
//	0      1      Handle zero case
//	-1     1      Handle negative case
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2 using bit manipulation.
// Powers of 2 have exactly one bit set, so n & (n-1) clears it to 0.
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
//	-8     false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
