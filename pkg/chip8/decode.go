package chip8

import "fmt"

// Op identifies a decoded instruction.
type Op uint8

const (
	OpInvalid Op = iota
	OpCLS        // 00E0
	OpRET        // 00EE
	OpJP         // 1nnn
	OpCALL       // 2nnn
	OpSEB        // 3xkk
	OpSNEB       // 4xkk
	OpSER        // 5xy0
	OpLDB        // 6xkk
	OpADDB       // 7xkk
	OpLDR        // 8xy0
	OpOR         // 8xy1
	OpAND        // 8xy2
	OpXOR        // 8xy3
	OpADDR       // 8xy4
	OpSUB        // 8xy5
	OpSHR        // 8xy6
	OpSUBN       // 8xy7
	OpSHL        // 8xyE
	OpSNER       // 9xy0
	OpLDI        // Annn
	OpJPV0       // Bnnn
	OpRND        // Cxkk
	OpDRW        // Dxyn
	OpSKP        // Ex9E
	OpSKNP       // ExA1
	OpLDVDT      // Fx07
	OpLDK        // Fx0A
	OpLDDT       // Fx15
	OpLDST       // Fx18
	OpADDI       // Fx1E
	OpLDF        // Fx29
	OpBCD        // Fx33
	OpSTM        // Fx55
	OpLDM        // Fx65
)

var opNames = [...]string{
	OpInvalid: "???",
	OpCLS:     "CLS",
	OpRET:     "RET",
	OpJP:      "JP",
	OpCALL:    "CALL",
	OpSEB:     "SE",
	OpSNEB:    "SNE",
	OpSER:     "SE",
	OpLDB:     "LD",
	OpADDB:    "ADD",
	OpLDR:     "LD",
	OpOR:      "OR",
	OpAND:     "AND",
	OpXOR:     "XOR",
	OpADDR:    "ADD",
	OpSUB:     "SUB",
	OpSHR:     "SHR",
	OpSUBN:    "SUBN",
	OpSHL:     "SHL",
	OpSNER:    "SNE",
	OpLDI:     "LD",
	OpJPV0:    "JP",
	OpRND:     "RND",
	OpDRW:     "DRW",
	OpSKP:     "SKP",
	OpSKNP:    "SKNP",
	OpLDVDT:   "LD",
	OpLDK:     "LD",
	OpLDDT:    "LD",
	OpLDST:    "LD",
	OpADDI:    "ADD",
	OpLDF:     "LD",
	OpBCD:     "LD",
	OpSTM:     "LD",
	OpLDM:     "LD",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Instruction is one decoded opcode. Only the operand fields that the Op
// uses are meaningful, but all are filled from the opcode word.
type Instruction struct {
	Op     Op
	Opcode uint16

	X   uint8  // bits 8-11
	Y   uint8  // bits 4-7
	N   uint8  // bits 0-3
	KK  uint8  // bits 0-7
	NNN uint16 // bits 0-11
}

func (in Instruction) String() string {
	return fmt.Sprintf("%04X %s", in.Opcode, in.Op)
}

// Decode splits opcode into its operand fields and identifies the
// instruction. Opcodes outside the base CHIP-8 set return ErrUnknownOpcode.
func Decode(opcode uint16) (Instruction, error) {
	in := Instruction{
		Opcode: opcode,
		X:      uint8(opcode>>8) & 0x0F,
		Y:      uint8(opcode>>4) & 0x0F,
		N:      uint8(opcode) & 0x0F,
		KK:     uint8(opcode),
		NNN:    opcode & 0x0FFF,
	}

	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x00E0:
			in.Op = OpCLS
		case 0x00EE:
			in.Op = OpRET
		}
	case 0x1000:
		in.Op = OpJP
	case 0x2000:
		in.Op = OpCALL
	case 0x3000:
		in.Op = OpSEB
	case 0x4000:
		in.Op = OpSNEB
	case 0x5000:
		if in.N == 0 {
			in.Op = OpSER
		}
	case 0x6000:
		in.Op = OpLDB
	case 0x7000:
		in.Op = OpADDB
	case 0x8000:
		switch in.N {
		case 0x0:
			in.Op = OpLDR
		case 0x1:
			in.Op = OpOR
		case 0x2:
			in.Op = OpAND
		case 0x3:
			in.Op = OpXOR
		case 0x4:
			in.Op = OpADDR
		case 0x5:
			in.Op = OpSUB
		case 0x6:
			in.Op = OpSHR
		case 0x7:
			in.Op = OpSUBN
		case 0xE:
			in.Op = OpSHL
		}
	case 0x9000:
		if in.N == 0 {
			in.Op = OpSNER
		}
	case 0xA000:
		in.Op = OpLDI
	case 0xB000:
		in.Op = OpJPV0
	case 0xC000:
		in.Op = OpRND
	case 0xD000:
		in.Op = OpDRW
	case 0xE000:
		switch in.KK {
		case 0x9E:
			in.Op = OpSKP
		case 0xA1:
			in.Op = OpSKNP
		}
	case 0xF000:
		switch in.KK {
		case 0x07:
			in.Op = OpLDVDT
		case 0x0A:
			in.Op = OpLDK
		case 0x15:
			in.Op = OpLDDT
		case 0x18:
			in.Op = OpLDST
		case 0x1E:
			in.Op = OpADDI
		case 0x29:
			in.Op = OpLDF
		case 0x33:
			in.Op = OpBCD
		case 0x55:
			in.Op = OpSTM
		case 0x65:
			in.Op = OpLDM
		}
	}

	if in.Op == OpInvalid {
		return in, ErrUnknownOpcode
	}
	return in, nil
}
