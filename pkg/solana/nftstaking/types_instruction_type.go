package nftstaking

import "fmt"

// InstructionType is the borsh enum index of the program's instruction.
type InstructionType uint8

const (
	InstructionTypeGenerateVault InstructionType = iota
	InstructionTypeStake
	InstructionTypeUnstake
	InstructionTypeAddToWhitelist
	InstructionTypeWithdraw

	Unknown InstructionType = 0xff
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeGenerateVault:
		return "generate_vault"
	case InstructionTypeStake:
		return "stake"
	case InstructionTypeUnstake:
		return "unstake"
	case InstructionTypeAddToWhitelist:
		return "add_to_whitelist"
	case InstructionTypeWithdraw:
		return "withdraw"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// GetInstructionType returns the type of the encoded instruction data.
func GetInstructionType(data []byte) (InstructionType, error) {
	if len(data) == 0 {
		return Unknown, ErrInvalidInstructionData
	}

	t := InstructionType(data[0])
	if t > InstructionTypeWithdraw {
		return Unknown, ErrInvalidInstructionData
	}
	return t, nil
}

func putInstructionType(dst []byte, v InstructionType, offset *int) {
	dst[*offset] = uint8(v)
	*offset += 1
}

func getInstructionType(src []byte, expected InstructionType, offset *int) error {
	t, err := GetInstructionType(src[*offset:])
	if err != nil {
		return err
	}
	if t != expected {
		return ErrInvalidInstructionData
	}
	*offset += 1
	return nil
}
