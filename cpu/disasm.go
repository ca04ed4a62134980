package cpu

import (
	"fmt"
	"io"

	"github.com/mpingram/chip8/memory"
)

// Disassemble writes a listing of the words words starting at from, one
// instruction per line:
//
//	200: 6a02  LD VA, $02
//
// Words that don't decode are listed as data (DW). The listing stops early,
// without error, at the end of memory.
func Disassemble(w io.Writer, mem *memory.Memory, from uint16, words int) error {
	for n := 0; n < words; n++ {
		addr := from + uint16(n)
		if addr > memory.MaxAddress {
			return nil
		}
		opcode, err := mem.Read(addr)
		if err != nil {
			return err
		}
		// an unknown opcode still yields its fields; String falls back to DW
		inst, _ := Decode(opcode)
		if _, err := fmt.Fprintf(w, "%03x: %04x  %s\n", addr, opcode, inst); err != nil {
			return err
		}
	}
	return nil
}
