package parallel

// TileGrid partitions an image into tiles.
//
// The grid has ceil(width/16) columns and ceil(height/16) rows. Tiles are
// stored in a flat slice in row-major order: index = ty*tilesX + tx.
type TileGrid struct {
	tiles  []Tile
	tilesX int
	tilesY int
}

// NewTileGrid creates the tile grid covering a width x height image.
// Non-positive dimensions produce an empty grid.
func NewTileGrid(width, height int) *TileGrid {
	if width <= 0 || height <= 0 {
		return &TileGrid{}
	}

	g := &TileGrid{
		tilesX: (width + TileSize - 1) / TileSize,
		tilesY: (height + TileSize - 1) / TileSize,
	}
	g.tiles = make([]Tile, 0, g.tilesX*g.tilesY)

	for ty := range g.tilesY {
		for tx := range g.tilesX {
			g.tiles = append(g.tiles, Tile{
				X:      tx,
				Y:      ty,
				Width:  min(TileSize, width-tx*TileSize),
				Height: min(TileSize, height-ty*TileSize),
			})
		}
	}
	return g
}

// TileCount returns the total number of tiles in the grid.
func (g *TileGrid) TileCount() int {
	return len(g.tiles)
}

// TilesX returns the number of tiles horizontally.
func (g *TileGrid) TilesX() int {
	return g.tilesX
}

// TilesY returns the number of tiles vertically.
func (g *TileGrid) TilesY() int {
	return g.tilesY
}

// Work builds one work item per tile by binding fn to each tile. The
// result is suitable for WorkerPool.Run.
func (g *TileGrid) Work(fn func(tile Tile)) []func() {
	work := make([]func(), len(g.tiles))
	for i, tile := range g.tiles {
		work[i] = func() { fn(tile) }
	}
	return work
}
