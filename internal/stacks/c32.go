package stacks

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
)

const c32Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// Address versions.
const (
	VersionMainnetSingleSig byte = 22
	VersionMainnetMultiSig  byte = 20
	VersionTestnetSingleSig byte = 26
	VersionTestnetMultiSig  byte = 21
)

// Address is a decoded c32check account address.
type Address struct {
	Version byte
	Hash160 [20]byte
}

// ParseAddress decodes an address such as SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7
// and verifies its checksum.
func ParseAddress(s string) (Address, error) {
	in := strings.ToUpper(strings.TrimSpace(s))
	if len(in) < 3 || in[0] != 'S' {
		return Address{}, fmt.Errorf("invalid address %q: missing S prefix", s)
	}
	version := strings.IndexByte(c32Alphabet, normalizeC32(in[1]))
	if version < 0 {
		return Address{}, fmt.Errorf("invalid address %q: bad version char", s)
	}
	payload, err := c32Decode(in[2:], 24)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	var out Address
	out.Version = byte(version)
	copy(out.Hash160[:], payload[:20])
	if !bytes.Equal(payload[20:], c32Checksum(out.Version, out.Hash160[:])) {
		return Address{}, fmt.Errorf("invalid address %q: checksum mismatch", s)
	}
	return out, nil
}

// String encodes the address back to its c32check form.
func (a Address) String() string {
	payload := make([]byte, 0, 24)
	payload = append(payload, a.Hash160[:]...)
	payload = append(payload, c32Checksum(a.Version, a.Hash160[:])...)
	return "S" + string(c32Alphabet[a.Version&31]) + c32Encode(payload)
}

// IsMainnet reports whether the version byte is a mainnet one.
func (a Address) IsMainnet() bool {
	return a.Version == VersionMainnetSingleSig || a.Version == VersionMainnetMultiSig
}

func c32Checksum(version byte, hash []byte) []byte {
	first := sha256.Sum256(append([]byte{version}, hash...))
	second := sha256.Sum256(first[:])
	return second[:4]
}

// c32Encode is base-32 over the big-endian integer value, with one leading
// '0' per leading zero byte.
func c32Encode(data []byte) string {
	zeros := 0
	for zeros < len(data) && data[zeros] == 0 {
		zeros++
	}
	n := new(big.Int).SetBytes(data)
	base := big.NewInt(32)
	mod := new(big.Int)
	var digits []byte
	for n.Sign() > 0 {
		n.DivMod(n, base, mod)
		digits = append(digits, c32Alphabet[mod.Int64()])
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return strings.Repeat("0", zeros) + string(digits)
}

func c32Decode(s string, size int) ([]byte, error) {
	n := new(big.Int)
	base := big.NewInt(32)
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(c32Alphabet, normalizeC32(s[i]))
		if idx < 0 {
			return nil, fmt.Errorf("invalid c32 character %q", s[i])
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(idx)))
	}
	raw := n.Bytes()
	if len(raw) > size {
		return nil, fmt.Errorf("c32 payload too long")
	}
	out := make([]byte, size)
	copy(out[size-len(raw):], raw)
	return out, nil
}

// normalizeC32 maps the characters c32 treats as ambiguous.
func normalizeC32(c byte) byte {
	switch c {
	case 'O':
		return '0'
	case 'L', 'I':
		return '1'
	}
	return c
}
