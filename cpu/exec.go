package cpu

import "github.com/mpingram/chip8/memory"

// exec runs one decoded instruction and returns the address of the next one.
//
// Every check that can fail is made before the first register, memory cell
// or pixel is changed, so a failed instruction leaves no trace.
func (c *Cpu) exec(inst Instruction, mem *memory.Memory, screen *Framebuffer, keys KeyState) (uint16, error) {
	x, y := inst.X, inst.Y
	next := c.pc + 1

	switch inst.Op {

	// 0nnn: SYS addr (machine code routine; we treat it as CALL)
	case OpSys, OpCall:
		// 2nnn: CALL addr
		c.stack = append(c.stack, c.pc)
		next = inst.NNN

	// 00E0: CLS (clear)
	case OpCls:
		screen.Clear()
		c.drawn = true

	// 00EE: RET (return)
	case OpRet:
		last := len(c.stack) - 1
		if last < 0 {
			return 0, ErrStackUnderflow
		}
		// we've gone back to the location of the original CALL instruction;
		// proceed past it to the next instruction.
		next = c.stack[last] + 1
		c.stack = c.stack[:last]

	// 1nnn: JP (jump) addr
	case OpJump:
		next = inst.NNN

	// 3xnn: SE Vx byte (skip if equal)
	case OpSkipEqImm:
		if c.v[x] == inst.NN {
			next++
		}

	// 4xnn: SNE Vx byte (skip if not equal)
	case OpSkipNeImm:
		if c.v[x] != inst.NN {
			next++
		}

	// 5xy0: SE Vx Vy (skip if equal)
	case OpSkipEqReg:
		if c.v[x] == c.v[y] {
			next++
		}

	// 6xnn: LD Vx byte (load value to register)
	case OpLoadImm:
		c.v[x] = inst.NN

	// 7xnn: ADD Vx byte (add value to register, no carry)
	case OpAddImm:
		c.v[x] += inst.NN

	// 8xy0: LD Vx Vy (clone register)
	case OpLoadReg:
		c.v[x] = c.v[y]

	// 8xy1: OR Vx Vy (or Vx Vy, assign result to Vx)
	case OpOr:
		c.v[x] |= c.v[y]

	// 8xy2: AND Vx Vy (and Vx Vy, assign result to Vx)
	case OpAnd:
		c.v[x] &= c.v[y]

	// 8xy3: XOR Vx Vy (xor Vx Vy, assign result to Vx)
	case OpXor:
		c.v[x] ^= c.v[y]

	// 8xy4: ADD Vx Vy (add Vx Vy, assign result to Vx, set VF=1 on carry)
	case OpAdd:
		sum := uint16(c.v[x]) + uint16(c.v[y])
		c.v[x] = byte(sum)
		c.v[0xf] = flag(sum > 0xff)

	// 8xy5: SUB Vx Vy (Vx = Vx - Vy, set VF=1 if there was no borrow)
	case OpSub:
		vx, vy := c.v[x], c.v[y]
		c.v[x] = vx - vy
		c.v[0xf] = flag(vx >= vy)

	// 8xy6: SHR Vx Vy (set VF to the lowest bit of the source, then Vx = source >> 1)
	case OpShiftRight:
		src := c.shiftSource(x, y)
		c.v[0xf] = src & 0x01
		c.v[x] = src >> 1

	// 8xy7: SUBN Vx Vy (Vx = Vy - Vx, set VF=1 if there was no borrow)
	case OpSubN:
		vx, vy := c.v[x], c.v[y]
		c.v[x] = vy - vx
		c.v[0xf] = flag(vy >= vx)

	// 8xyE: SHL Vx Vy (set VF to the highest bit of the source, then Vx = source << 1)
	case OpShiftLeft:
		src := c.shiftSource(x, y)
		c.v[0xf] = src >> 7
		c.v[x] = src << 1

	// 9xy0: SNE Vx Vy (skip next opcode if Vx != Vy)
	case OpSkipNeReg:
		if c.v[x] != c.v[y] {
			next++
		}

	// Annn: LD I addr (set I=nnn)
	case OpLoadI:
		c.i = inst.NNN

	// Bnnn: JP V0 addr (jump to address nnn + V0)
	case OpJumpV0:
		next = inst.NNN + uint16(c.v[0])

	// Cxnn: RND Vx byte (Vx = random byte and nn)
	case OpRand:
		c.v[x] = byte(c.rng.Intn(256)) & inst.NN

	// Dxyn: DRW Vx Vy n (display n-byte sprite located at I at coordinates Vx,Vy,
	// set VF=collision [if sprite is drawn on top of any active pixels])
	case OpDraw:
		sprite, err := mem.ReadBytes(c.i, int(inst.N))
		if err != nil {
			return 0, err
		}
		px, py := c.v[x], c.v[y]
		c.v[0xf] = 0
		if screen.drawSprite(sprite, px, py) {
			c.v[0xf] = 1
		}
		c.drawn = true

	// Ex9E: SKP Vx (skip next instruction if key with the value of Vx is currently pressed)
	case OpSkipKey:
		if keys[c.v[x]&0x0f] {
			next++
		}

	// ExA1: SKNP Vx (skip next instruction if key with the value of Vx is currently not pressed)
	case OpSkipNotKey:
		if !keys[c.v[x]&0x0f] {
			next++
		}

	// Fx07: LD Vx DT (set Vx=DT)
	case OpLoadDelay:
		c.v[x] = c.dt

	// Fx0A: LD Vx K (wait for a key, store the key in Vx)
	case OpWaitKey:
		return c.waitKey(x, keys, next), nil

	// Fx15: LD DT Vx (set DT=Vx)
	case OpSetDelay:
		c.dt = c.v[x]

	// Fx18: LD ST Vx (set ST=Vx)
	case OpSetSound:
		c.st = c.v[x]

	// Fx1E: ADD I Vx (set I=I+Vx)
	case OpAddI:
		// stick at FFFF rather than wrap back into memory
		if sum := uint32(c.i) + uint32(c.v[x]); sum > 0xffff {
			c.i = 0xffff
		} else {
			c.i = uint16(sum)
		}

	// Fx29: LD F Vx (set I=memory address of the font glyph for the digit in Vx)
	case OpFont:
		c.i = glyphAddress(c.v[x])

	// Fx33: LD B Vx (store the binary coded decimal representation of Vx in memory:
	// I (hundreds place), I+1 (tens place), I+2 (ones place))
	case OpBCD:
		vx := c.v[x]
		if err := mem.WriteBytes(c.i, []byte{vx / 100, vx / 10 % 10, vx % 10}); err != nil {
			return 0, err
		}

	// Fx55: LD [I] Vx (store registers V0 through Vx in memory starting at I)
	case OpStore:
		if err := mem.WriteBytes(c.i, c.v[:x+1]); err != nil {
			return 0, err
		}
		if !c.quirks.StoreLoad {
			c.i += uint16(x) + 1
		}

	// Fx65: LD Vx [I] (read values in memory starting at I into registers V0 through Vx)
	case OpLoad:
		data, err := mem.ReadBytes(c.i, int(x)+1)
		if err != nil {
			return 0, err
		}
		copy(c.v[:], data)
		if !c.quirks.StoreLoad {
			c.i += uint16(x) + 1
		}

	default:
		return 0, ErrUnknownOpcode
	}

	return next, nil
}

// waitKey runs Fx0A. The first time through it records the keypad and stays
// on the same instruction. After that it compares each new snapshot with the
// recorded one and finishes on the first key that changed, pressed or
// released, storing that key in Vx.
func (c *Cpu) waitKey(x byte, keys KeyState, next uint16) uint16 {
	if c.pendingKeys == nil {
		snapshot := keys
		c.pendingKeys = &snapshot
		return c.pc
	}

	for k := range keys {
		if keys[k] != c.pendingKeys[k] {
			c.v[x] = byte(k)
			c.pendingKeys = nil
			return next
		}
	}
	return c.pc
}

func (c *Cpu) shiftSource(x, y byte) byte {
	if c.quirks.ShiftY {
		return c.v[y]
	}
	return c.v[x]
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
