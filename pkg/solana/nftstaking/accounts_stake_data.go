package nftstaking

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

const (
	StakeDataAccountSize = (8 + // timestamp
		32 + // staker
		1) // active
)

// StakeDataAccount is the stake record of a single NFT.
type StakeDataAccount struct {
	Timestamp uint64
	Staker    ed25519.PublicKey
	Active    bool
}

func (obj *StakeDataAccount) Marshal() []byte {
	data := make([]byte, StakeDataAccountSize)

	var offset int
	putUint64(data, obj.Timestamp, &offset)
	putKey(data, obj.Staker, &offset)
	putBool(data, obj.Active, &offset)

	return data
}

func (obj *StakeDataAccount) Unmarshal(data []byte) error {
	if len(data) < StakeDataAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	getUint64(data, &obj.Timestamp, &offset)
	getKey(data, &obj.Staker, &offset)
	getBool(data, &obj.Active, &offset)

	return nil
}

// StakedAt returns when the NFT was staked.
func (obj *StakeDataAccount) StakedAt() time.Time {
	return time.Unix(int64(obj.Timestamp), 0)
}

// Unlocked reports whether the minimum staking period has elapsed at now.
func (obj *StakeDataAccount) Unlocked(contract *ContractDataAccount, now time.Time) bool {
	return !now.Before(obj.StakedAt().Add(time.Duration(contract.MinPeriod) * time.Second))
}

func (obj *StakeDataAccount) String() string {
	return fmt.Sprintf(
		"StakeDataAccount{timestamp=%d,staker=%s,active=%v}",
		obj.Timestamp,
		base58.Encode(obj.Staker),
		obj.Active,
	)
}
