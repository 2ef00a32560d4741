package surface

import (
	"image"
	"image/color"
)

// HalfBlock is the glyph that shows two vertically stacked pixels in one
// terminal cell: foreground on top, background below.
const HalfBlock = '▀'

// Cell holds the two pixels shown by one terminal cell.
type Cell struct {
	Top, Bottom color.RGBA
}

// HalfBlocks maps an image onto cols x rows terminal cells, two pixel
// rows per cell. Pixels outside the image read as bg. Cells are returned
// row by row.
func HalfBlocks(img *image.RGBA, cols, rows int, bg color.RGBA) []Cell {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	cells := make([]Cell, cols*rows)
	at := func(x, y int) color.RGBA {
		if img == nil || !image.Pt(x, y).In(img.Rect) {
			return bg
		}
		return img.RGBAAt(x, y)
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cells[row*cols+col] = Cell{Top: at(col, 2*row), Bottom: at(col, 2*row+1)}
		}
	}
	return cells
}
