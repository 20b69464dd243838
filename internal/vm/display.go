package vm

const (
	// DisplayWidth is the width of the display in pixels.
	DisplayWidth = 64
	// DisplayHeight is the height of the display in pixels.
	DisplayHeight = 32
)

// Framebuffer is the monochrome display, indexed by row and column.
type Framebuffer [DisplayHeight][DisplayWidth]bool

// Pixel returns whether the pixel at the given position is set.
func (f *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || x >= DisplayWidth || y < 0 || y >= DisplayHeight {
		return false
	}
	return f[y][x]
}

// Lit returns the number of set pixels.
func (f *Framebuffer) Lit() int {
	var count int
	for y := range f {
		for x := range f[y] {
			if f[y][x] {
				count++
			}
		}
	}
	return count
}

// drawSprite XORs a sprite onto the display with its top left corner at
// originX, originY. Every sprite row is one byte, most significant bit
// leftmost. Pixels that fall outside of the display are clipped.
// It returns whether any set pixel was turned off.
func (f *Framebuffer) drawSprite(originX, originY int, sprite []byte) bool {
	collision := false

	for row, data := range sprite {
		y := originY + row
		if y >= DisplayHeight {
			break
		}

		for bit := range 8 {
			if data&(0x80>>bit) == 0 {
				continue
			}
			x := originX + bit
			if x >= DisplayWidth {
				break
			}

			if f[y][x] {
				collision = true
			}
			f[y][x] = !f[y][x]
		}
	}

	return collision
}
