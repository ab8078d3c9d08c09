package grid

// GetGridCoords converts a linear row-major index into (x, y) for a grid
// with the given number of columns.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// Index is the inverse of GetGridCoords.
func Index(x, y, cols int) int {
	return y*cols + x
}

// Wrap folds (x, y) onto a cols x rows torus. Negative coordinates wrap
// from the opposite edge.
func Wrap(x, y, cols, rows int) (int, int) {
	x %= cols
	if x < 0 {
		x += cols
	}
	y %= rows
	if y < 0 {
		y += rows
	}
	return x, y
}
