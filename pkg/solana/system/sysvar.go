package system

import (
	"crypto/ed25519"
	"encoding/binary"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// RentSysVar points to the system variable "Rent"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
var RentSysVar ed25519.PublicKey

// ClockSysVar points to the system variable "Clock"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/clock.rs
var ClockSysVar ed25519.PublicKey

func init() {
	var err error

	RentSysVar, err = base58.Decode("SysvarRent111111111111111111111111111111111")
	if err != nil {
		panic(err)
	}

	ClockSysVar, err = base58.Decode("SysvarC1ock11111111111111111111111111111111")
	if err != nil {
		panic(err)
	}
}

// ClockSize is the size of the Clock sysvar account data.
const ClockSize = 40

var ErrInvalidClock = errors.New("invalid clock sysvar data")

// Clock is the decoded Clock sysvar.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/clock.rs#L96
type Clock struct {
	Slot                uint64
	EpochStartTimestamp int64
	Epoch               uint64
	LeaderScheduleEpoch uint64
	UnixTimestamp       int64
}

func (c *Clock) Unmarshal(data []byte) error {
	if len(data) < ClockSize {
		return errors.Wrapf(ErrInvalidClock, "expected %d bytes, got %d", ClockSize, len(data))
	}

	c.Slot = binary.LittleEndian.Uint64(data[0:])
	c.EpochStartTimestamp = int64(binary.LittleEndian.Uint64(data[8:]))
	c.Epoch = binary.LittleEndian.Uint64(data[16:])
	c.LeaderScheduleEpoch = binary.LittleEndian.Uint64(data[24:])
	c.UnixTimestamp = int64(binary.LittleEndian.Uint64(data[32:]))
	return nil
}

// Time returns the cluster's estimate of the current wall clock time.
func (c Clock) Time() time.Time {
	return time.Unix(c.UnixTimestamp, 0)
}
