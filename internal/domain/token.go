package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// IDKind is the variant of a token identifier.
type IDKind string

const (
	IDKindU8    IDKind = "u8"
	IDKindU16   IDKind = "u16"
	IDKindU32   IDKind = "u32"
	IDKindU64   IDKind = "u64"
	IDKindU128  IDKind = "u128"
	IDKindBytes IDKind = "bytes"
)

var kindRank = map[IDKind]int{
	IDKindU8:    0,
	IDKindU16:   1,
	IDKindU32:   2,
	IDKindU64:   3,
	IDKindU128:  4,
	IDKindBytes: 5,
}

var kindBits = map[IDKind]int{
	IDKindU8:  8,
	IDKindU16: 16,
	IDKindU32: 32,
	IDKindU64: 64,
}

// TokenID identifies a single NFT. Value is canonical for its kind:
// decimal without leading zeros for the integer kinds, lower-case 0x hex
// for bytes. Two TokenIDs are equal exactly when they name the same token,
// so the struct can be used as a map key.
type TokenID struct {
	Kind  IDKind
	Value string
}

// U8 returns the u8 token id v.
func U8(v uint8) TokenID {
	return TokenID{Kind: IDKindU8, Value: strconv.FormatUint(uint64(v), 10)}
}

// U64 returns the u64 token id v.
func U64(v uint64) TokenID {
	return TokenID{Kind: IDKindU64, Value: strconv.FormatUint(v, 10)}
}

// BytesID returns the bytes token id holding b.
func BytesID(b []byte) TokenID {
	return TokenID{Kind: IDKindBytes, Value: hexutil.Encode(b)}
}

// ParseTokenID parses the "kind:value" text form, e.g. "u8:1" or
// "bytes:0xdeadbeef", range checking integer values against their kind.
func ParseTokenID(s string) (TokenID, error) {
	kindStr, value, ok := strings.Cut(s, ":")
	if !ok {
		return TokenID{}, fmt.Errorf("token id must have the form kind:value, got %q", s)
	}
	kind := IDKind(kindStr)

	switch kind {
	case IDKindU8, IDKindU16, IDKindU32, IDKindU64:
		n, err := strconv.ParseUint(value, 10, kindBits[kind])
		if err != nil {
			return TokenID{}, fmt.Errorf("token id value %q is not a valid %s", value, kind)
		}
		return TokenID{Kind: kind, Value: strconv.FormatUint(n, 10)}, nil
	case IDKindU128:
		n, err := uint256.FromDecimal(value)
		if err != nil || n.BitLen() > 128 {
			return TokenID{}, fmt.Errorf("token id value %q is not a valid u128", value)
		}
		return TokenID{Kind: kind, Value: n.Dec()}, nil
	case IDKindBytes:
		b, err := hexutil.Decode(value)
		if err != nil {
			return TokenID{}, fmt.Errorf("token id value %q is not 0x-prefixed hex", value)
		}
		return BytesID(b), nil
	}
	return TokenID{}, fmt.Errorf("unknown token id kind %q, must be one of: u8, u16, u32, u64, u128, bytes", kindStr)
}

// String returns the "kind:value" text form accepted by ParseTokenID.
func (id TokenID) String() string {
	return string(id.Kind) + ":" + id.Value
}

// Less orders token ids by kind, then numerically for the integer kinds
// and lexically for bytes.
func (id TokenID) Less(other TokenID) bool {
	if id.Kind != other.Kind {
		return kindRank[id.Kind] < kindRank[other.Kind]
	}
	if id.Kind != IDKindBytes && len(id.Value) != len(other.Value) {
		return len(id.Value) < len(other.Value)
	}
	return id.Value < other.Value
}
