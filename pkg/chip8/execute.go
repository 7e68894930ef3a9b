package chip8

import (
	"fmt"

	"gochip8/pkg/grid"
)

// Cycle performs one fetch-decode-execute step. A fault halts the machine:
// the returned *ExecError is kept and handed back by every later call until
// Reset.
func (m *Machine) Cycle() error {
	if m.err != nil {
		return m.err
	}

	pc := m.PC
	if int(pc)+1 >= MemorySize {
		return m.fault(pc, 0, fmt.Errorf("%w: fetch at %04X", ErrMemoryBounds, pc))
	}
	opcode := uint16(m.Memory[pc])<<8 | uint16(m.Memory[pc+1])

	in, err := Decode(opcode)
	if err != nil {
		return m.fault(pc, opcode, err)
	}

	// Advance before executing so jumps and calls can assign PC directly.
	m.PC += 2
	m.waiting = false

	if err := m.Execute(in); err != nil {
		m.PC = pc
		return m.fault(pc, opcode, err)
	}
	m.Cycles++
	return nil
}

func (m *Machine) fault(pc, opcode uint16, err error) error {
	m.err = &ExecError{PC: pc, Opcode: opcode, Err: err}
	return m.err
}

func (m *Machine) skipIf(cond bool) error {
	if !cond {
		return nil
	}
	return m.jump(m.PC + 2)
}

// jump moves PC to target, refusing addresses outside memory.
func (m *Machine) jump(target uint16) error {
	if int(target) >= MemorySize {
		return fmt.Errorf("%w: jump to %04X", ErrMemoryBounds, target)
	}
	m.PC = target
	return nil
}

// transfersControl reports whether op always replaces PC, so falling off the
// end of memory cannot happen.
func (o Op) transfersControl() bool {
	switch o {
	case OpJP, OpCALL, OpRET, OpJPV0:
		return true
	}
	return false
}

// Execute applies a decoded instruction to the machine state. PC must already
// point past the instruction. Faults are reported before any state changes.
func (m *Machine) Execute(in Instruction) error {
	if int(m.PC) >= MemorySize && !in.Op.transfersControl() {
		return fmt.Errorf("%w: fall through to %04X", ErrMemoryBounds, m.PC)
	}

	vx := m.V[in.X]
	vy := m.V[in.Y]

	switch in.Op {
	case OpCLS:
		m.ClearDisplay()

	case OpRET:
		if m.SP == 0 {
			return ErrStackUnderflow
		}
		if err := m.jump(m.Stack[m.SP-1]); err != nil {
			return err
		}
		m.SP--

	case OpJP:
		m.PC = in.NNN

	case OpCALL:
		if int(m.SP) >= StackDepth {
			return ErrStackOverflow
		}
		m.Stack[m.SP] = m.PC
		m.SP++
		m.PC = in.NNN

	case OpSEB:
		return m.skipIf(vx == in.KK)

	case OpSNEB:
		return m.skipIf(vx != in.KK)

	case OpSER:
		return m.skipIf(vx == vy)

	case OpSNER:
		return m.skipIf(vx != vy)

	case OpLDB:
		m.V[in.X] = in.KK

	case OpADDB:
		m.V[in.X] = vx + in.KK

	case OpLDR:
		m.V[in.X] = vy

	case OpOR:
		m.V[in.X] = vx | vy

	case OpAND:
		m.V[in.X] = vx & vy

	case OpXOR:
		m.V[in.X] = vx ^ vy

	// The flag is written after the result so VF holds the flag even when
	// x is F.
	case OpADDR:
		sum := uint16(vx) + uint16(vy)
		m.V[in.X] = byte(sum)
		m.V[RegF] = boolByte(sum > 0xFF)

	case OpSUB:
		m.V[in.X] = vx - vy
		m.V[RegF] = boolByte(vx >= vy)

	case OpSUBN:
		m.V[in.X] = vy - vx
		m.V[RegF] = boolByte(vy >= vx)

	case OpSHR:
		src := m.shiftSource(in)
		m.V[in.X] = src >> 1
		m.V[RegF] = src & 0x01

	case OpSHL:
		src := m.shiftSource(in)
		m.V[in.X] = src << 1
		m.V[RegF] = src >> 7

	case OpLDI:
		m.I = in.NNN

	case OpJPV0:
		return m.jump(in.NNN + uint16(m.V[0]))

	case OpRND:
		m.V[in.X] = m.random() & in.KK

	case OpDRW:
		return m.draw(int(vx), int(vy), int(in.N))

	case OpSKP:
		return m.skipIf(m.keys[vx&0x0F])

	case OpSKNP:
		return m.skipIf(!m.keys[vx&0x0F])

	case OpLDVDT:
		m.V[in.X] = m.DelayTimer

	case OpLDK:
		for k, pressed := range m.keys {
			if pressed {
				m.V[in.X] = byte(k)
				return nil
			}
		}
		// Re-run this instruction next cycle so the host can refresh keys.
		m.PC -= 2
		m.waiting = true

	case OpLDDT:
		m.DelayTimer = vx

	case OpLDST:
		m.SoundTimer = vx

	case OpADDI:
		m.I += uint16(vx)

	case OpLDF:
		m.I = FontAddress + uint16(vx)*glyphSize

	case OpBCD:
		if err := m.checkRange(m.I, 3); err != nil {
			return err
		}
		m.Memory[m.I] = vx / 100
		m.Memory[m.I+1] = (vx / 10) % 10
		m.Memory[m.I+2] = vx % 10

	case OpSTM:
		n := int(in.X) + 1
		if err := m.checkRange(m.I, n); err != nil {
			return err
		}
		copy(m.Memory[m.I:int(m.I)+n], m.V[:n])

	case OpLDM:
		n := int(in.X) + 1
		if err := m.checkRange(m.I, n); err != nil {
			return err
		}
		copy(m.V[:n], m.Memory[m.I:int(m.I)+n])

	default:
		return ErrUnknownOpcode
	}
	return nil
}

func (m *Machine) shiftSource(in Instruction) byte {
	if m.Quirks.ShiftUsesVy {
		return m.V[in.Y]
	}
	return m.V[in.X]
}

// draw XORs an 8-pixel-wide, n-row sprite read from memory at I onto the
// display. Each pixel wraps around the screen edges independently. VF is set
// when a lit pixel is turned off.
func (m *Machine) draw(x0, y0, n int) error {
	if err := m.checkRange(m.I, n); err != nil {
		return err
	}

	m.V[RegF] = 0
	for row := 0; row < n; row++ {
		sprite := m.Memory[int(m.I)+row]
		for col := 0; col < 8; col++ {
			if sprite&(0x80>>col) == 0 {
				continue
			}
			x, y := grid.Wrap(x0+col, y0+row, DisplayWidth, DisplayHeight)
			if m.display[y][x] {
				m.V[RegF] = 1
			}
			m.display[y][x] = !m.display[y][x]
		}
	}
	return nil
}

func (m *Machine) checkRange(addr uint16, n int) error {
	if int(addr)+n > MemorySize {
		return fmt.Errorf("%w: %d bytes at %04X", ErrMemoryBounds, n, addr)
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
