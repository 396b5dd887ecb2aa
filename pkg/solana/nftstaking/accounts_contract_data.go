package nftstaking

const (
	ContractDataAccountSize = (8 + // min_period
		8) // reward_period
)

// ContractDataAccount is stored at the vault address by GenerateVault.
type ContractDataAccount struct {
	// MinPeriod is how long, in seconds, an NFT must stay staked before it
	// can be withdrawn.
	MinPeriod uint64
	// RewardPeriod is the interval, in seconds, at which rewards accrue.
	RewardPeriod uint64
}

func (obj *ContractDataAccount) Marshal() []byte {
	data := make([]byte, ContractDataAccountSize)

	var offset int
	putUint64(data, obj.MinPeriod, &offset)
	putUint64(data, obj.RewardPeriod, &offset)

	return data
}

func (obj *ContractDataAccount) Unmarshal(data []byte) error {
	if len(data) < ContractDataAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	getUint64(data, &obj.MinPeriod, &offset)
	getUint64(data, &obj.RewardPeriod, &offset)

	return nil
}
