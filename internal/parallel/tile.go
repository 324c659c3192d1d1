// Package parallel schedules escape-time rendering across CPU cores.
//
// The image is divided into 16x16 pixel tiles. Each tile becomes one work
// item on a work-stealing WorkerPool; tiles cover disjoint pixel ranges, so
// workers write their output slots without locking.
//
// Thread safety: TileGrid is immutable after construction. WorkerPool is
// safe for concurrent use.
package parallel

// Tile size constants.
const (
	// TileSize is the edge length of a full tile in pixels. It matches the
	// 16x16 workgroup of the compute kernels, so CPU and GPU partition an
	// image the same way.
	TileSize = 16

	// TilePixels is the number of pixels in a full tile.
	TilePixels = TileSize * TileSize
)

// Tile is a rectangular region of the output image processed as one unit.
//
// Edge tiles have reduced Width or Height when the image dimensions are
// not multiples of TileSize, so iterating a tile's extent never leaves the
// image.
type Tile struct {
	// X is the tile column index (0-based).
	X int

	// Y is the tile row index (0-based).
	Y int

	// Width is the actual width in pixels (may be < TileSize for edge tiles).
	Width int

	// Height is the actual height in pixels (may be < TileSize for edge tiles).
	Height int
}

// Bounds returns the pixel bounds of this tile in image space.
// Returns (x, y, width, height) where x,y is the top-left corner.
func (t Tile) Bounds() (x, y, w, h int) {
	return t.X * TileSize, t.Y * TileSize, t.Width, t.Height
}
