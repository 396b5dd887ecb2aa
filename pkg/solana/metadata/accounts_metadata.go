package metadata

import (
	"bytes"
	"crypto/ed25519"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
)

// ErrMalformedRecord indicates the account data does not match the
// metadata layout, or lacks the creator this client depends on.
var ErrMalformedRecord = errors.New("malformed metadata record")

type Key uint8

// Reference: https://github.com/metaplex-foundation/metaplex-program-library/blob/master/token-metadata/program/src/state/mod.rs
const (
	KeyUninitialized Key = iota
	KeyEditionV1
	KeyMasterEditionV1
	KeyReservationListV1
	KeyMetadataV1
)

const creatorSize = 32 + 1 + 1

type Creator struct {
	Address  ed25519.PublicKey
	Verified bool
	// Share is the creator's percentage of royalties.
	Share uint8
}

type Data struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
}

// Metadata is the leading, fixed portion of a metadata account. Fields the
// program appended in later versions are not decoded.
type Metadata struct {
	Key             Key
	UpdateAuthority ed25519.PublicKey
	Mint            ed25519.PublicKey
	Data            Data

	PrimarySaleHappened bool
	IsMutable           bool
}

// Marshal borsh encodes the record without padding its strings.
func (obj *Metadata) Marshal() ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := bin.NewBorshEncoder(buf)

	var err error
	write := func(fn func() error) {
		if err == nil {
			err = fn()
		}
	}
	writeKey := func(key ed25519.PublicKey) {
		write(func() error {
			if len(key) != ed25519.PublicKeySize {
				return errors.Errorf("invalid key length: %d", len(key))
			}
			return enc.WriteBytes(key, false)
		})
	}
	writeString := func(s string) {
		write(func() error { return enc.WriteUint32(uint32(len(s)), bin.LE) })
		write(func() error { return enc.WriteBytes([]byte(s), false) })
	}

	write(func() error { return enc.WriteUint8(uint8(obj.Key)) })
	writeKey(obj.UpdateAuthority)
	writeKey(obj.Mint)
	writeString(obj.Data.Name)
	writeString(obj.Data.Symbol)
	writeString(obj.Data.URI)
	write(func() error { return enc.WriteUint16(obj.Data.SellerFeeBasisPoints, bin.LE) })

	if obj.Data.Creators == nil {
		write(func() error { return enc.WriteUint8(0) })
	} else {
		write(func() error { return enc.WriteUint8(1) })
		write(func() error { return enc.WriteUint32(uint32(len(obj.Data.Creators)), bin.LE) })
		for _, c := range obj.Data.Creators {
			writeKey(c.Address)
			write(func() error { return enc.WriteBool(c.Verified) })
			write(func() error { return enc.WriteUint8(c.Share) })
		}
	}

	write(func() error { return enc.WriteBool(obj.PrimarySaleHappened) })
	write(func() error { return enc.WriteBool(obj.IsMutable) })

	if err != nil {
		return nil, errors.Wrap(err, "failed to encode metadata")
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes the borsh encoded account data. Trailing bytes are
// ignored.
func (obj *Metadata) Unmarshal(data []byte) error {
	dec := bin.NewBorshDecoder(data)

	key, err := dec.ReadUint8()
	if err != nil {
		return malformed(err, "key")
	}
	obj.Key = Key(key)
	if obj.Key != KeyMetadataV1 {
		return errors.Wrapf(ErrMalformedRecord, "unexpected account key: %d", key)
	}

	if obj.UpdateAuthority, err = readKey(dec); err != nil {
		return malformed(err, "update authority")
	}
	if obj.Mint, err = readKey(dec); err != nil {
		return malformed(err, "mint")
	}

	if obj.Data.Name, err = readString(dec); err != nil {
		return malformed(err, "name")
	}
	if obj.Data.Symbol, err = readString(dec); err != nil {
		return malformed(err, "symbol")
	}
	if obj.Data.URI, err = readString(dec); err != nil {
		return malformed(err, "uri")
	}
	if obj.Data.SellerFeeBasisPoints, err = dec.ReadUint16(bin.LE); err != nil {
		return malformed(err, "seller fee")
	}

	if obj.Data.Creators, err = readCreators(dec); err != nil {
		return malformed(err, "creators")
	}

	// Both flags follow the creators in every account version, but older
	// fixtures may be truncated after the data section.
	if dec.Remaining() >= 2 {
		if obj.PrimarySaleHappened, err = dec.ReadBool(); err != nil {
			return malformed(err, "primary sale happened")
		}
		if obj.IsMutable, err = dec.ReadBool(); err != nil {
			return malformed(err, "is mutable")
		}
	}

	return nil
}

// FirstCreator returns the address of the first listed creator.
func (obj *Metadata) FirstCreator() (ed25519.PublicKey, error) {
	if len(obj.Data.Creators) == 0 {
		return nil, errors.Wrap(ErrMalformedRecord, "no creators")
	}
	return obj.Data.Creators[0].Address, nil
}

func readKey(dec *bin.Decoder) (ed25519.PublicKey, error) {
	b, err := dec.ReadBytes(ed25519.PublicKeySize)
	if err != nil {
		return nil, err
	}

	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, b)
	return key, nil
}

func readString(dec *bin.Decoder) (string, error) {
	length, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return "", err
	}
	if uint64(length) > uint64(dec.Remaining()) {
		return "", errors.Errorf("string length %d exceeds remaining %d bytes", length, dec.Remaining())
	}

	b, err := dec.ReadBytes(int(length))
	if err != nil {
		return "", err
	}

	// The program pads names, symbols and uris with trailing zeros.
	return strings.TrimRight(string(b), "\x00"), nil
}

func readCreators(dec *bin.Decoder) ([]Creator, error) {
	present, err := dec.ReadUint8()
	if err != nil {
		return nil, err
	}

	switch present {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, errors.Errorf("invalid option tag: %d", present)
	}

	count, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	if uint64(count)*creatorSize > uint64(dec.Remaining()) {
		return nil, errors.Errorf("%d creators exceed remaining %d bytes", count, dec.Remaining())
	}

	creators := make([]Creator, count)
	for i := range creators {
		if creators[i].Address, err = readKey(dec); err != nil {
			return nil, err
		}
		if creators[i].Verified, err = dec.ReadBool(); err != nil {
			return nil, err
		}
		if creators[i].Share, err = dec.ReadUint8(); err != nil {
			return nil, err
		}
	}

	return creators, nil
}

func malformed(err error, field string) error {
	return errors.Wrapf(ErrMalformedRecord, "failed to read %s: %v", field, err)
}
