package geometry

// BlockSize is the number of primitive slots in a block
const BlockSize = 4

// Block is a leaf's group of up to BlockSize primitives of one type
type Block struct {
	Type   Type
	GeomID [BlockSize]uint32
	PrimID [BlockSize]uint32
	Valid  uint8 // Bit i set when slot i holds a primitive
}

// NewBlock creates an empty block for type t
func NewBlock(t Type) Block {
	return Block{Type: t}
}

// Add fills the next free slot and reports false when the block is full
func (b *Block) Add(geomID, primID uint32) bool {
	n := b.Len()
	if n == BlockSize {
		return false
	}
	b.GeomID[n] = geomID
	b.PrimID[n] = primID
	b.Valid |= 1 << uint(n)
	return true
}

// Len returns the number of filled slots
func (b *Block) Len() int {
	n := 0
	for v := b.Valid; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// IsValid reports whether slot i holds a primitive
func (b *Block) IsValid(i int) bool {
	return b.Valid&(1<<uint(i)) != 0
}
