package custody

import (
	"encoding/binary"
)

// Opcode is the first byte of every custody instruction.
type Opcode uint8

const (
	OpcodeLockIn Opcode = iota
	OpcodeLockOut
	OpcodeInitialize
)

func (o Opcode) String() string {
	switch o {
	case OpcodeLockIn:
		return "lock_in"
	case OpcodeLockOut:
		return "lock_out"
	case OpcodeInitialize:
		return "initialize"
	}
	return "unknown"
}

const (
	InitializeInstructionArgsSize = (2 + // capacity
		1) // authority_bump

	LockInInstructionArgsSize  = ForeignAddressSize
	LockOutInstructionArgsSize = ForeignAddressSize
)

// Command is a decoded custody instruction.
type Command interface {
	Opcode() Opcode
}

type InitializeCommand struct {
	Capacity      uint16
	AuthorityBump uint8
}

func (c *InitializeCommand) Opcode() Opcode { return OpcodeInitialize }

type LockInCommand struct {
	ForeignAddress ForeignAddress
}

func (c *LockInCommand) Opcode() Opcode { return OpcodeLockIn }

type LockOutCommand struct {
	ForeignAddress ForeignAddress
}

func (c *LockOutCommand) Opcode() Opcode { return OpcodeLockOut }

// DecodeCommand parses instruction data. Payload lengths must match exactly,
// otherwise ErrInvalidInstruction is returned.
func DecodeCommand(data []byte) (Command, error) {
	if len(data) == 0 {
		return nil, ErrInvalidInstruction
	}

	payload := data[1:]
	switch Opcode(data[0]) {
	case OpcodeLockIn:
		if len(payload) != LockInInstructionArgsSize {
			return nil, ErrInvalidInstruction
		}

		var cmd LockInCommand
		copy(cmd.ForeignAddress[:], payload)
		return &cmd, nil
	case OpcodeLockOut:
		if len(payload) != LockOutInstructionArgsSize {
			return nil, ErrInvalidInstruction
		}

		var cmd LockOutCommand
		copy(cmd.ForeignAddress[:], payload)
		return &cmd, nil
	case OpcodeInitialize:
		if len(payload) != InitializeInstructionArgsSize {
			return nil, ErrInvalidInstruction
		}

		return &InitializeCommand{
			Capacity:      binary.LittleEndian.Uint16(payload),
			AuthorityBump: payload[2],
		}, nil
	default:
		return nil, ErrInvalidInstruction
	}
}
