package cpu

import "fmt"

// Op identifies one of the 35 Chip-8 instructions. The zero value, OpNone,
// is never produced by a successful decode.
type Op uint8

const (
	OpNone Op = iota
	OpSys
	OpCls
	OpRet
	OpJump
	OpCall
	OpSkipEqImm
	OpSkipNeImm
	OpSkipEqReg
	OpLoadImm
	OpAddImm
	OpLoadReg
	OpOr
	OpAnd
	OpXor
	OpAdd
	OpSub
	OpShiftRight
	OpSubN
	OpShiftLeft
	OpSkipNeReg
	OpLoadI
	OpJumpV0
	OpRand
	OpDraw
	OpSkipKey
	OpSkipNotKey
	OpLoadDelay
	OpWaitKey
	OpSetDelay
	OpSetSound
	OpAddI
	OpFont
	OpBCD
	OpStore
	OpLoad
)

var opTags = [...]string{
	OpNone:       "????",
	OpSys:        "0nnn",
	OpCls:        "00E0",
	OpRet:        "00EE",
	OpJump:       "1nnn",
	OpCall:       "2nnn",
	OpSkipEqImm:  "3xnn",
	OpSkipNeImm:  "4xnn",
	OpSkipEqReg:  "5xy0",
	OpLoadImm:    "6xnn",
	OpAddImm:     "7xnn",
	OpLoadReg:    "8xy0",
	OpOr:         "8xy1",
	OpAnd:        "8xy2",
	OpXor:        "8xy3",
	OpAdd:        "8xy4",
	OpSub:        "8xy5",
	OpShiftRight: "8xy6",
	OpSubN:       "8xy7",
	OpShiftLeft:  "8xyE",
	OpSkipNeReg:  "9xy0",
	OpLoadI:      "Annn",
	OpJumpV0:     "Bnnn",
	OpRand:       "Cxnn",
	OpDraw:       "Dxyn",
	OpSkipKey:    "Ex9E",
	OpSkipNotKey: "ExA1",
	OpLoadDelay:  "Fx07",
	OpWaitKey:    "Fx0A",
	OpSetDelay:   "Fx15",
	OpSetSound:   "Fx18",
	OpAddI:       "Fx1E",
	OpFont:       "Fx29",
	OpBCD:        "Fx33",
	OpStore:      "Fx55",
	OpLoad:       "Fx65",
}

// String returns the opcode pattern of the instruction, eg. "8xy4".
func (op Op) String() string {
	if int(op) < len(opTags) {
		return opTags[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// Instruction is a decoded opcode together with its operand fields.
//
// key:
// ------
// nnn - low 12 bits of opcode
// n - low 4 bits of opcode
// x - low 4 bits of opcode's high byte
// y - high 4 bits of opcode's low byte
// nn - opcode's low byte
type Instruction struct {
	Op     Op
	Opcode uint16
	NNN    uint16
	NN     byte
	N      byte
	X      byte
	Y      byte
}

// Decode splits opcode into its fields and identifies the instruction.
// It returns ErrUnknownOpcode for any word that isn't one of the 35
// documented instructions.
func Decode(opcode uint16) (Instruction, error) {
	inst := Instruction{
		Opcode: opcode,
		NNN:    opcode & 0x0fff,
		NN:     byte(opcode & 0x00ff),
		N:      byte(opcode & 0x000f),
		X:      byte(opcode & 0x0f00 >> 8),
		Y:      byte(opcode & 0x00f0 >> 4),
	}

	switch first := opcode >> 12; first {
	case 0x0:
		switch opcode {
		case 0x00e0:
			inst.Op = OpCls
		case 0x00ee:
			inst.Op = OpRet
		case 0x0000:
			// an all-zero word is empty memory, not a machine code routine
		default:
			inst.Op = OpSys
		}
	case 0x1:
		inst.Op = OpJump
	case 0x2:
		inst.Op = OpCall
	case 0x3:
		inst.Op = OpSkipEqImm
	case 0x4:
		inst.Op = OpSkipNeImm
	case 0x5:
		if inst.N == 0x0 {
			inst.Op = OpSkipEqReg
		}
	case 0x6:
		inst.Op = OpLoadImm
	case 0x7:
		inst.Op = OpAddImm
	case 0x8:
		switch inst.N {
		case 0x0:
			inst.Op = OpLoadReg
		case 0x1:
			inst.Op = OpOr
		case 0x2:
			inst.Op = OpAnd
		case 0x3:
			inst.Op = OpXor
		case 0x4:
			inst.Op = OpAdd
		case 0x5:
			inst.Op = OpSub
		case 0x6:
			inst.Op = OpShiftRight
		case 0x7:
			inst.Op = OpSubN
		case 0xe:
			inst.Op = OpShiftLeft
		}
	case 0x9:
		if inst.N == 0x0 {
			inst.Op = OpSkipNeReg
		}
	case 0xa:
		inst.Op = OpLoadI
	case 0xb:
		inst.Op = OpJumpV0
	case 0xc:
		inst.Op = OpRand
	case 0xd:
		inst.Op = OpDraw
	case 0xe:
		switch inst.NN {
		case 0x9e:
			inst.Op = OpSkipKey
		case 0xa1:
			inst.Op = OpSkipNotKey
		}
	case 0xf:
		switch inst.NN {
		case 0x07:
			inst.Op = OpLoadDelay
		case 0x0a:
			inst.Op = OpWaitKey
		case 0x15:
			inst.Op = OpSetDelay
		case 0x18:
			inst.Op = OpSetSound
		case 0x1e:
			inst.Op = OpAddI
		case 0x29:
			inst.Op = OpFont
		case 0x33:
			inst.Op = OpBCD
		case 0x55:
			inst.Op = OpStore
		case 0x65:
			inst.Op = OpLoad
		}
	}

	if inst.Op == OpNone {
		return inst, ErrUnknownOpcode
	}
	return inst, nil
}

// String returns the assembler mnemonic for the instruction.
func (inst Instruction) String() string {
	x, y := inst.X, inst.Y
	switch inst.Op {
	case OpSys:
		return fmt.Sprintf("SYS $%03X", inst.NNN)
	case OpCls:
		return "CLS"
	case OpRet:
		return "RET"
	case OpJump:
		return fmt.Sprintf("JP $%03X", inst.NNN)
	case OpCall:
		return fmt.Sprintf("CALL $%03X", inst.NNN)
	case OpSkipEqImm:
		return fmt.Sprintf("SE V%X, $%02X", x, inst.NN)
	case OpSkipNeImm:
		return fmt.Sprintf("SNE V%X, $%02X", x, inst.NN)
	case OpSkipEqReg:
		return fmt.Sprintf("SE V%X, V%X", x, y)
	case OpLoadImm:
		return fmt.Sprintf("LD V%X, $%02X", x, inst.NN)
	case OpAddImm:
		return fmt.Sprintf("ADD V%X, $%02X", x, inst.NN)
	case OpLoadReg:
		return fmt.Sprintf("LD V%X, V%X", x, y)
	case OpOr:
		return fmt.Sprintf("OR V%X, V%X", x, y)
	case OpAnd:
		return fmt.Sprintf("AND V%X, V%X", x, y)
	case OpXor:
		return fmt.Sprintf("XOR V%X, V%X", x, y)
	case OpAdd:
		return fmt.Sprintf("ADD V%X, V%X", x, y)
	case OpSub:
		return fmt.Sprintf("SUB V%X, V%X", x, y)
	case OpShiftRight:
		return fmt.Sprintf("SHR V%X, V%X", x, y)
	case OpSubN:
		return fmt.Sprintf("SUBN V%X, V%X", x, y)
	case OpShiftLeft:
		return fmt.Sprintf("SHL V%X, V%X", x, y)
	case OpSkipNeReg:
		return fmt.Sprintf("SNE V%X, V%X", x, y)
	case OpLoadI:
		return fmt.Sprintf("LD I, $%03X", inst.NNN)
	case OpJumpV0:
		return fmt.Sprintf("JP V0, $%03X", inst.NNN)
	case OpRand:
		return fmt.Sprintf("RND V%X, $%02X", x, inst.NN)
	case OpDraw:
		return fmt.Sprintf("DRW V%X, V%X, $%X", x, y, inst.N)
	case OpSkipKey:
		return fmt.Sprintf("SKP V%X", x)
	case OpSkipNotKey:
		return fmt.Sprintf("SKNP V%X", x)
	case OpLoadDelay:
		return fmt.Sprintf("LD V%X, DT", x)
	case OpWaitKey:
		return fmt.Sprintf("LD V%X, K", x)
	case OpSetDelay:
		return fmt.Sprintf("LD DT, V%X", x)
	case OpSetSound:
		return fmt.Sprintf("LD ST, V%X", x)
	case OpAddI:
		return fmt.Sprintf("ADD I, V%X", x)
	case OpFont:
		return fmt.Sprintf("LD F, V%X", x)
	case OpBCD:
		return fmt.Sprintf("LD B, V%X", x)
	case OpStore:
		return fmt.Sprintf("LD [I], V%X", x)
	case OpLoad:
		return fmt.Sprintf("LD V%X, [I]", x)
	}
	return fmt.Sprintf("DW $%04X", inst.Opcode)
}
