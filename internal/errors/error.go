package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSlotCount       = errors.New("slots per node must be a positive integer")
	ErrInvalidNodeCount       = errors.New("node count must be at least the replication factor")
	ErrUnsupportedReplication = errors.New("only a replication factor of 3 is supported")
	ErrSlotsNotMultiple       = errors.New("slots per node must be a multiple of replication factor times rank cycle")
	ErrUnsupportedRankCycle   = errors.New("unsupported rank cycle")
	ErrRankOrderOutOfRange    = errors.New("rank order out of range")
	ErrFailedNodeOutOfRange   = errors.New("failed node out of range")
	ErrShiftTableLength       = errors.New("shift table length must equal the rank cycle")
	ErrUnknownVariant         = errors.New("unknown distribution variant")
	ErrUnknownFormat          = errors.New("unknown output format")
	ErrInvalidTarget          = errors.New("invalid output target")
)

// OutOfRangeError reports a parameter that fell outside [low, high].
func OutOfRangeError(err error, value, low, high int) error {
	return fmt.Errorf("%w: %d not in [%d, %d]", err, value, low, high)
}

func FlagNotSetError(flag string) error {
	return fmt.Errorf("the --%s flag must be set", flag)
}
