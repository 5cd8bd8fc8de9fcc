package font

import (
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// NewRanges builds a range table from inclusive [low, high] code point pairs.
// A trailing unpaired value is ignored, as are pairs whose high bound is below the low bound.
//
// Parameters:
//   - bounds: flattened pairs of inclusive low/high code points
//
// Returns:
//   - *unicode.RangeTable: a normalized table covering every listed pair
func NewRanges(bounds ...rune) *unicode.RangeTable {
	tables := make([]*unicode.RangeTable, 0, len(bounds)/2)
	for i := 0; i+1 < len(bounds); i += 2 {
		lo, hi := bounds[i], bounds[i+1]
		if hi < lo {
			continue
		}
		tables = append(tables, spanTable(lo, hi))
	}
	return rangetable.Merge(tables...)
}

// spanTable returns a stride-1 table for a single inclusive span.
func spanTable(lo, hi rune) *unicode.RangeTable {
	rt := &unicode.RangeTable{}
	switch {
	case hi <= 0xFFFF:
		rt.R16 = []unicode.Range16{{Lo: uint16(lo), Hi: uint16(hi), Stride: 1}}
	case lo > 0xFFFF:
		rt.R32 = []unicode.Range32{{Lo: uint32(lo), Hi: uint32(hi), Stride: 1}}
	default:
		rt.R16 = []unicode.Range16{{Lo: uint16(lo), Hi: 0xFFFF, Stride: 1}}
		rt.R32 = []unicode.Range32{{Lo: 0x10000, Hi: uint32(hi), Stride: 1}}
	}
	for _, r := range rt.R16 {
		if r.Hi <= unicode.MaxLatin1 {
			rt.LatinOffset++
		}
	}
	return rt
}

// PrimaryRanges returns the curated set of ranges loaded from the primary terminal font.
// The terminal UI draws panel borders and status indicators with box-drawing and block glyphs,
// so those blocks are requested alongside Latin text. U+FFFD is requested for missing glyphs.
//
// Returns:
//   - *unicode.RangeTable: the primary font's code point coverage request
func PrimaryRanges() *unicode.RangeTable {
	return NewRanges(
		0x0020, 0x00FF, // Basic Latin + Latin-1 Supplement
		0x2500, 0x257F, // Box Drawing
		0x2580, 0x259F, // Block Elements
		0x25A0, 0x25FF, // Geometric Shapes
		0x2600, 0x26FF, // Miscellaneous Symbols
		0x2700, 0x27BF, // Dingbats
		0x2900, 0x297F, // Supplemental Arrows-B
		0x2B00, 0x2BFF, // Miscellaneous Symbols and Arrows
		0x3000, 0x303F, // CJK Symbols and Punctuation
		0xE000, 0xE0FF, // Private Use Area
		unicode.ReplacementChar, unicode.ReplacementChar,
	)
}

// BrailleRanges returns the Braille Patterns block, reserved for an auxiliary font.
//
// Returns:
//   - *unicode.RangeTable: U+2800 through U+28FF
func BrailleRanges() *unicode.RangeTable {
	return NewRanges(0x2800, 0x28FF)
}

// DefaultRanges returns the coverage of the built-in fallback face: printable ASCII and U+FFFD.
//
// Returns:
//   - *unicode.RangeTable: the fallback face's coverage
func DefaultRanges() *unicode.RangeTable {
	return NewRanges(
		0x0020, 0x007E,
		unicode.ReplacementChar, unicode.ReplacementChar,
	)
}

// MergeRanges returns the union of the given tables.
//
// Parameters:
//   - tables: the tables to merge
//
// Returns:
//   - *unicode.RangeTable: a table covering every code point in any input
func MergeRanges(tables ...*unicode.RangeTable) *unicode.RangeTable {
	nonNil := make([]*unicode.RangeTable, 0, len(tables))
	for _, t := range tables {
		if t != nil {
			nonNil = append(nonNil, t)
		}
	}
	return rangetable.Merge(nonNil...)
}

// Overlap returns the code points present in both tables, in ascending order.
//
// Parameters:
//   - a: the first table
//   - b: the second table
//
// Returns:
//   - []rune: the shared code points, empty when the tables are disjoint
func Overlap(a, b *unicode.RangeTable) []rune {
	if a == nil || b == nil {
		return nil
	}
	var shared []rune
	rangetable.Visit(a, func(r rune) {
		if unicode.Is(b, r) {
			shared = append(shared, r)
		}
	})
	return shared
}

// CountRanges returns the number of code points in a table.
//
// Parameters:
//   - rt: the table to count
//
// Returns:
//   - int: the number of code points covered
func CountRanges(rt *unicode.RangeTable) int {
	if rt == nil {
		return 0
	}
	n := 0
	rangetable.Visit(rt, func(rune) { n++ })
	return n
}
