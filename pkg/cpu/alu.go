package cpu

// addWithCarry adds in a widened accumulator. carry is 1 when the true sum
// exceeds 255.
func addWithCarry(a, b byte) (sum, carry byte) {
	wide := uint16(a) + uint16(b)
	if wide > 0xFF {
		carry = 1
	}
	return byte(wide), carry
}

// subWithBorrow computes a-b modulo 256. notBorrow is 1 when a >= b.
func subWithBorrow(a, b byte) (diff, notBorrow byte) {
	if a >= b {
		notBorrow = 1
	}
	return a - b, notBorrow
}

// shiftRight returns v>>1 and the bit shifted out.
func shiftRight(v byte) (res, flag byte) {
	return v >> 1, v & 0x01
}

// shiftLeft returns v<<1 truncated to 8 bits and the bit shifted out.
func shiftLeft(v byte) (res, flag byte) {
	return v << 1, v >> 7
}

// bcd splits v into hundreds, tens and ones.
func bcd(v byte) [3]byte {
	return [3]byte{v / 100, v / 10 % 10, v % 10}
}
