package cpu

// Screen dimensions in pixels.
const (
	Width  = 64
	Height = 32
)

// Framebuffer is the 64x32px monochrome screen, column-major: fb[x][y] is
// the pixel x columns from the left and y rows from the top. Only CLS and
// DRW change it.
type Framebuffer [Width][Height]bool

// KeyState is a snapshot of the hexadecimal keypad. Index 0x0 through 0xF
// is true while that key is held down.
type KeyState [16]bool

// Clear turns every pixel off.
func (fb *Framebuffer) Clear() {
	*fb = Framebuffer{}
}

// drawSprite XORs the sprite onto the screen with its top-left corner at x,y.
//
// Each byte of sprite is one 8px row, highest bit leftmost. Pixels that fall
// off the right or bottom edge wrap around to the opposite edge.
//
// drawSprite returns true if any sprite pixel landed on a pixel that was
// already on, which turns that pixel off.
func (fb *Framebuffer) drawSprite(sprite []byte, x, y byte) bool {
	var collision bool
	for row, bits := range sprite {
		py := (int(y) + row) % Height
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}
			px := (int(x) + col) % Width
			if fb[px][py] {
				collision = true
			}
			fb[px][py] = !fb[px][py]
		}
	}
	return collision
}
