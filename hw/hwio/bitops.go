package hwio

// 32-bit operations
func GetBit32(v uint32, n uint) bool {
	return GetBiti32(v, n) != 0
}

func GetBiti32(v uint32, n uint) uint32 {
	return v >> n & 0x01
}

func SetBit32(v *uint32, n uint) {
	*v |= 1 << n
}

func ClearBit32(v *uint32, n uint) {
	*v &^= 1 << n
}

func FlipBit32(v *uint32, n uint) {
	*v ^= 1 << n
}

func ClearBits32(v *uint32, mask uint32) {
	*v &^= mask
}

// W1C applies write-1-to-clear semantics: every bit set in val clears the
// corresponding bit of the register value.
func W1C(old, val uint32) uint32 {
	return old &^ val
}
