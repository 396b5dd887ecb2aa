package nftstaking

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/nft-staking-cli/pkg/solana/binary"
)

func putUint64(dst []byte, v uint64, offset *int) {
	binary.PutUint64(dst[*offset:], v, offset)
}
func getUint64(src []byte, dst *uint64, offset *int) {
	binary.GetUint64(src[*offset:], dst, offset)
}

func putKey(dst []byte, v ed25519.PublicKey, offset *int) {
	binary.PutKey32(dst[*offset:], v, offset)
}
func getKey(src []byte, dst *ed25519.PublicKey, offset *int) {
	binary.GetKey32(src[*offset:], dst, offset)
}

func putBool(dst []byte, v bool, offset *int) {
	binary.PutBool(dst[*offset:], v, offset)
}
func getBool(src []byte, dst *bool, offset *int) {
	binary.GetBool(src[*offset:], dst, offset)
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
