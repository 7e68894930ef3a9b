package grid

// GetGridCoords converts a row-major index into (x, y) for a grid cols wide.
func GetGridCoords(index, cols int) (int, int) {
	return index % cols, index / cols
}

// Wrap folds (x, y) onto a width x height torus. Negative inputs wrap too.
func Wrap(x, y, width, height int) (int, int) {
	x %= width
	if x < 0 {
		x += width
	}
	y %= height
	if y < 0 {
		y += height
	}
	return x, y
}
