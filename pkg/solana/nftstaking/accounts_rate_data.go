package nftstaking

const (
	RateDataAccountSize = 8 // price
)

// RateDataAccount is the whitelist entry of a registered collection.
type RateDataAccount struct {
	Price uint64
}

func (obj *RateDataAccount) Marshal() []byte {
	data := make([]byte, RateDataAccountSize)

	var offset int
	putUint64(data, obj.Price, &offset)

	return data
}

func (obj *RateDataAccount) Unmarshal(data []byte) error {
	if len(data) < RateDataAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	getUint64(data, &obj.Price, &offset)

	return nil
}
