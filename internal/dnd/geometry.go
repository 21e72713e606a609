// Package dnd resolves drop positions from pointer geometry and drives a single drag gesture
// against the board.
package dnd

// Point is a pointer position in layout units.
type Point struct {
	X float64
	Y float64
}

// Rect is a rendered bounding box. Y grows downward.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// CenterY returns the vertical center of r.
func (r Rect) CenterY() float64 {
	return r.Y + r.H/2
}

// Contains reports whether p lies inside r. The right and bottom edges are exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// ResolveDropIndex returns the index of the first card whose vertical center lies below pointerY,
// so the drop lands before it. A pointer exactly on a center also lands before that card.
// Below every center, or in an empty column, it returns len(boxes).
func ResolveDropIndex(pointerY float64, boxes []Rect) int {
	for idx, box := range boxes {
		if pointerY <= box.CenterY() {
			return idx
		}
	}
	return len(boxes)
}
