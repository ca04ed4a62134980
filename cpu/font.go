package cpu

import "github.com/mpingram/chip8/memory"

// FontAddress is the word where the first glyph of the built in font starts.
//
// Glyphs are five rows tall but memory is word addressed, so each glyph is
// padded to three words (six bytes) to keep every glyph on a word boundary.
const (
	FontAddress uint16 = 0x010
	glyphWords  uint16 = 3
)

var font = [16][5]byte{
	{0xF0, 0x90, 0x90, 0x90, 0xF0}, // 0
	{0x20, 0x60, 0x20, 0x20, 0x70}, // 1
	{0xF0, 0x10, 0xF0, 0x80, 0xF0}, // 2
	{0xF0, 0x10, 0xF0, 0x10, 0xF0}, // 3
	{0x90, 0x90, 0xF0, 0x10, 0x10}, // 4
	{0xF0, 0x80, 0xF0, 0x10, 0xF0}, // 5
	{0xF0, 0x80, 0xF0, 0x90, 0xF0}, // 6
	{0xF0, 0x10, 0x20, 0x40, 0x40}, // 7
	{0xF0, 0x90, 0xF0, 0x90, 0xF0}, // 8
	{0xF0, 0x90, 0xF0, 0x10, 0xF0}, // 9
	{0xF0, 0x90, 0xF0, 0x90, 0x90}, // A
	{0xE0, 0x90, 0xE0, 0x90, 0xE0}, // B
	{0xF0, 0x80, 0x80, 0x80, 0xF0}, // C
	{0xE0, 0x90, 0x90, 0x90, 0xE0}, // D
	{0xF0, 0x80, 0xF0, 0x80, 0xF0}, // E
	{0xF0, 0x80, 0xF0, 0x80, 0x80}, // F
}

// LoadFont writes the hex digit glyphs into the reserved region of mem.
func LoadFont(mem *memory.Memory) error {
	for digit, glyph := range font {
		addr := glyphAddress(byte(digit))
		words := [glyphWords]uint16{
			uint16(glyph[0])<<8 | uint16(glyph[1]),
			uint16(glyph[2])<<8 | uint16(glyph[3]),
			uint16(glyph[4]) << 8,
		}
		for i, w := range words {
			if err := mem.UnboundWrite(addr+uint16(i), w); err != nil {
				return err
			}
		}
	}
	return nil
}

// glyphAddress returns the word holding the first row of the glyph for the
// low nibble of digit.
func glyphAddress(digit byte) uint16 {
	return FontAddress + uint16(digit&0x0f)*glyphWords
}
