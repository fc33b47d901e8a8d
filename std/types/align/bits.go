package align

import "golang.org/x/exp/constraints"

// Field describes a bit field of Width bits starting at bit Shift of an
// unsigned word.
type Field[W constraints.Unsigned] struct {
	Shift uint
	Width uint
}

// Mask returns the unshifted mask of the field.
func (f Field[W]) Mask() W {
	return ^(^W(0) << f.Width)
}

// Max is the largest value the field can hold.
func (f Field[W]) Max() W {
	return f.Mask()
}

// Get extracts the field from w.
func (f Field[W]) Get(w W) W {
	return (w >> f.Shift) & f.Mask()
}

// Set returns w with the field replaced by v. Bits of v above Width are dropped.
func (f Field[W]) Set(w W, v W) W {
	return (w &^ (f.Mask() << f.Shift)) | ((v & f.Mask()) << f.Shift)
}

// Next returns the field directly above f with the given width.
func (f Field[W]) Next(width uint) Field[W] {
	return Field[W]{Shift: f.Shift + f.Width, Width: width}
}
