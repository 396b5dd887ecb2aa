// Package metadata reads Metaplex token metadata accounts. Staking only
// needs the verified creator of an NFT, which identifies the collection
// (candy machine) it was minted from.
package metadata

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
)

// ProgramKey is the address of the token metadata program.
var ProgramKey = ed25519.PublicKey(mustBase58Decode("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"))

var MetadataPrefix = []byte("metadata")

type GetMetadataAddressArgs struct {
	Mint ed25519.PublicKey

	// Program overrides the metadata program deployment. ProgramKey is used
	// when unset.
	Program ed25519.PublicKey
}

// GetMetadataAddress returns the metadata account of an NFT mint, derived
// under the metadata program rather than the caller's program.
func GetMetadataAddress(args *GetMetadataAddressArgs) (ed25519.PublicKey, uint8, error) {
	program := args.Program
	if len(program) == 0 {
		program = ProgramKey
	}

	return solana.FindProgramAddressAndBump(
		program,
		MetadataPrefix,
		program,
		args.Mint,
	)
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
