package blog

// Range is an inclusive integer range.
type Range struct {
	Min, Max int
}

// Shape is the formatting contract for a section of a given size.
type Shape struct {
	Paragraphs  Range
	ListItems   Range
	RequireList bool
}

// SectionShape returns the required shape for a word band, keyed by its midpoint.
func SectionShape(minWords, maxWords int) Shape {
	mid := (minWords + maxWords) / 2
	switch {
	case mid <= 120:
		return Shape{Paragraphs: Range{1, 1}}
	case mid <= 170:
		return Shape{Paragraphs: Range{1, 2}, ListItems: Range{0, 3}}
	case mid <= 250:
		return Shape{Paragraphs: Range{2, 3}, ListItems: Range{3, 4}, RequireList: true}
	default:
		return Shape{Paragraphs: Range{3, 4}, ListItems: Range{5, 7}, RequireList: true}
	}
}
