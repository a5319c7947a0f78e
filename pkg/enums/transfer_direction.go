package enums

import "fmt"

// TransferDirection describes whether a bank transaction moved money in or out.
type TransferDirection string

const (
	TransferDirectionIn  TransferDirection = "in"
	TransferDirectionOut TransferDirection = "out"
)

var validTransferDirections = []TransferDirection{
	TransferDirectionIn,
	TransferDirectionOut,
}

// IsValid reports whether the value matches the canonical transfer direction enum.
func (t TransferDirection) IsValid() bool {
	for _, candidate := range validTransferDirections {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransferDirection converts the raw string to TransferDirection.
func ParseTransferDirection(value string) (TransferDirection, error) {
	for _, candidate := range validTransferDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transfer direction %q", value)
}
