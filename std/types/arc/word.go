package arc

import "github.com/named-data/impatience/std/types/align"

// word packs a block address and the number of checked-in readers:
//
//	63                          7 6       0
//	+----------------------------+---------+
//	|      address / 128         | readers |
//	+----------------------------+---------+
//
// Block addresses are 128-byte aligned, so no address bit is lost.
type word uint64

var (
	readersField = align.Field[uint64]{Shift: 0, Width: align.AlignBits}
	addrField    = readersField.Next(64 - align.AlignBits)
)

func encode(p Ptr, readers uint64) word {
	w := addrField.Set(0, uint64(p)>>align.AlignBits)
	return word(readersField.Set(w, readers))
}

func (w word) ptr() Ptr {
	return Ptr(addrField.Get(uint64(w)) << align.AlignBits)
}

func (w word) readers() uint64 {
	return readersField.Get(uint64(w))
}

func (w word) saturated() bool {
	return w.readers() == readersField.Max()
}

// inc and dec must not be called on a saturated or empty count.
func (w word) inc() word {
	return encode(w.ptr(), w.readers()+1)
}

func (w word) dec() word {
	return encode(w.ptr(), w.readers()-1)
}
