package reg

// Extract returns the field (mask, offset) of word, right-aligned.
func Extract(word, mask, offset uint32) uint32 {
	return (word >> offset) & mask
}

// Insert returns word with the field (mask, offset) replaced by val. Bits of
// val outside mask are discarded, bits of word outside the field are kept.
func Insert(word, mask, offset, val uint32) uint32 {
	return (word &^ (mask << offset)) | ((val & mask) << offset)
}
