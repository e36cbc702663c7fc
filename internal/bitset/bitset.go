// Package bitset provides dense, word-packed cell masks over a 2-D grid and
// the axis-shift operations used by level-synchronous BFS.
//
// A mask stores one bit per cell, row-major. Each row occupies Stride 64-bit
// words so that vertical shifts are whole-word moves and horizontal shifts
// carry only between neighbouring words of the same row. Bits past Width in a
// row's last word are padding; callers keep them clear by intersecting with
// Layout.Valid (or a mask derived from it).
package bitset

import "math/bits"

const wordBits = 64

// Mask is a word-packed cell mask. Its length is Layout.Words().
type Mask []uint64

// Layout describes how a Width x Height grid maps onto mask words.
type Layout struct {
	Width  int
	Height int
	Stride int // words per row
}

// NewLayout returns the layout for a width x height grid.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:  width,
		Height: height,
		Stride: (width + wordBits - 1) / wordBits,
	}
}

// Words returns the number of uint64 words in one mask.
func (l Layout) Words() int {
	return l.Height * l.Stride
}

// Bytes returns the memory footprint of one mask.
func (l Layout) Bytes() int {
	return l.Words() * 8
}

// New allocates an empty mask.
func (l Layout) New() Mask {
	return make(Mask, l.Words())
}

// Set sets the bit for (x,y).
func (l Layout) Set(m Mask, x, y int) {
	m[y*l.Stride+x/wordBits] |= 1 << uint(x%wordBits)
}

// Test reports whether the bit for (x,y) is set.
func (l Layout) Test(m Mask, x, y int) bool {
	return m[y*l.Stride+x/wordBits]&(1<<uint(x%wordBits)) != 0
}

// Valid returns a mask with every in-grid bit set and all row padding clear.
func (l Layout) Valid() Mask {
	m := l.New()
	tail := l.Width % wordBits
	for y := 0; y < l.Height; y++ {
		row := m[y*l.Stride : (y+1)*l.Stride]
		for w := range row {
			row[w] = ^uint64(0)
		}
		if tail != 0 {
			row[l.Stride-1] = (1 << uint(tail)) - 1
		}
	}
	return m
}

// Expand overwrites dst with the union of src shifted one cell up, down, left
// and right. Cells shifted off the grid are dropped; the padding bit right of
// the last column may be set and must be cleared by the caller's mask.
func (l Layout) Expand(dst, src Mask) {
	s := l.Stride
	for y := 0; y < l.Height; y++ {
		base := y * s
		row := src[base : base+s]
		out := dst[base : base+s]
		for w := 0; w < s; w++ {
			v := row[w]
			acc := v<<1 | v>>1
			if w > 0 {
				acc |= row[w-1] >> (wordBits - 1)
			}
			if w+1 < s {
				acc |= row[w+1] << (wordBits - 1)
			}
			if y > 0 {
				acc |= src[base-s+w]
			}
			if y+1 < l.Height {
				acc |= src[base+s+w]
			}
			out[w] = acc
		}
	}
}

// Advance performs one BFS ring step for a single mask triple:
//
//	next     = Expand(frontier) & allowed &^ visited
//	visited |= next
//
// It reports whether next is non-empty.
func (l Layout) Advance(next, frontier, visited, allowed Mask) bool {
	l.Expand(next, frontier)
	var live uint64
	i := 0
	n := len(next)
	for ; i <= n-4; i += 4 {
		a0 := next[i] & allowed[i] &^ visited[i]
		a1 := next[i+1] & allowed[i+1] &^ visited[i+1]
		a2 := next[i+2] & allowed[i+2] &^ visited[i+2]
		a3 := next[i+3] & allowed[i+3] &^ visited[i+3]
		next[i], next[i+1], next[i+2], next[i+3] = a0, a1, a2, a3
		visited[i] |= a0
		visited[i+1] |= a1
		visited[i+2] |= a2
		visited[i+3] |= a3
		live |= a0 | a1 | a2 | a3
	}
	for ; i < n; i++ {
		a := next[i] & allowed[i] &^ visited[i]
		next[i] = a
		visited[i] |= a
		live |= a
	}
	return live != 0
}

// ForEach calls fn with the row-major cell index (y*Width + x) of every set bit.
func (l Layout) ForEach(m Mask, fn func(idx int)) {
	for y := 0; y < l.Height; y++ {
		base := y * l.Stride
		for w := 0; w < l.Stride; w++ {
			word := m[base+w]
			for word != 0 {
				b := bits.TrailingZeros64(word)
				word &= word - 1
				x := w*wordBits + b
				if x < l.Width {
					fn(y*l.Width + x)
				}
			}
		}
	}
}

// Count returns the number of set bits.
func Count(m Mask) int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

// Any reports whether any bit is set.
func Any(m Mask) bool {
	for _, w := range m {
		if w != 0 {
			return true
		}
	}
	return false
}

// Clear zeroes m.
func Clear(m Mask) {
	for i := range m {
		m[i] = 0
	}
}

// AndNot clears in dst every bit set in src.
func AndNot(dst, src Mask) {
	for i := range dst {
		dst[i] &^= src[i]
	}
}
