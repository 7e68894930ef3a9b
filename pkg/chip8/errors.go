package chip8

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrStackOverflow   = errors.New("stack overflow")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrMemoryBounds    = errors.New("memory access out of bounds")
	ErrProgramTooLarge = errors.New("program too large for memory")
)

// ExecError is returned by Cycle when an instruction faults. PC is the
// address the opcode was fetched from.
type ExecError struct {
	PC     uint16
	Opcode uint16
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("chip8: opcode %04X at %03X: %v", e.Opcode, e.PC, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
