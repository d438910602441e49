package stacks

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"
)

// Clarity wire type prefixes.
const (
	typeInt               byte = 0x00
	typeUInt              byte = 0x01
	typeBuffer            byte = 0x02
	typeTrue              byte = 0x03
	typeFalse             byte = 0x04
	typeStandardPrincipal byte = 0x05
	typeContractPrincipal byte = 0x06
	typeResponseOk        byte = 0x07
	typeResponseErr       byte = 0x08
	typeOptionalNone      byte = 0x09
	typeOptionalSome      byte = 0x0a
	typeList              byte = 0x0b
	typeTuple             byte = 0x0c
	typeStringASCII       byte = 0x0d
	typeStringUTF8        byte = 0x0e
)

const maxNestingDepth = 32

// Value is a Clarity value.
type Value interface {
	clarityType() byte
	encode(w *bytes.Buffer) error
}

type Int struct{ V *big.Int }
type UInt struct{ V *big.Int }
type Bool bool
type Buffer []byte
type StringASCII string
type StringUTF8 string
type List []Value

type StandardPrincipal struct{ Address Address }

type ContractPrincipal struct {
	Address Address
	Name    string
}

type ResponseOk struct{ V Value }
type ResponseErr struct{ V Value }
type None struct{}
type Some struct{ V Value }

// Tuple is keyed by field name. Serialization orders keys lexically.
type Tuple map[string]Value

func NewUInt(v uint64) UInt { return UInt{V: new(big.Int).SetUint64(v)} }

func NewUIntBig(v *big.Int) UInt { return UInt{V: new(big.Int).Set(v)} }

// NewPrincipal parses "ADDR" or "ADDR.contract-name".
func NewPrincipal(s string) (Value, error) {
	addr, name, isContract := strings.Cut(strings.TrimSpace(s), ".")
	parsed, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	if !isContract {
		return StandardPrincipal{Address: parsed}, nil
	}
	if name == "" || len(name) > 128 {
		return nil, fmt.Errorf("invalid contract name in %q", s)
	}
	return ContractPrincipal{Address: parsed, Name: name}, nil
}

func (Int) clarityType() byte               { return typeInt }
func (UInt) clarityType() byte              { return typeUInt }
func (Buffer) clarityType() byte            { return typeBuffer }
func (StringASCII) clarityType() byte       { return typeStringASCII }
func (StringUTF8) clarityType() byte        { return typeStringUTF8 }
func (List) clarityType() byte              { return typeList }
func (Tuple) clarityType() byte             { return typeTuple }
func (StandardPrincipal) clarityType() byte { return typeStandardPrincipal }
func (ContractPrincipal) clarityType() byte { return typeContractPrincipal }
func (ResponseOk) clarityType() byte        { return typeResponseOk }
func (ResponseErr) clarityType() byte       { return typeResponseErr }
func (None) clarityType() byte              { return typeOptionalNone }
func (Some) clarityType() byte              { return typeOptionalSome }

func (b Bool) clarityType() byte {
	if b {
		return typeTrue
	}
	return typeFalse
}

func (v Int) encode(w *bytes.Buffer) error {
	if v.V == nil {
		return fmt.Errorf("nil int")
	}
	// 128-bit two's complement
	mod := new(big.Int).Lsh(big.NewInt(1), 128)
	n := new(big.Int).Set(v.V)
	if n.Sign() < 0 {
		n.Add(n, mod)
	}
	if n.Sign() < 0 || n.BitLen() > 128 {
		return fmt.Errorf("int out of range")
	}
	return writeU128(w, n)
}

func (v UInt) encode(w *bytes.Buffer) error {
	if v.V == nil {
		return fmt.Errorf("nil uint")
	}
	if v.V.Sign() < 0 || v.V.BitLen() > 128 {
		return fmt.Errorf("uint out of range")
	}
	return writeU128(w, v.V)
}

func writeU128(w *bytes.Buffer, n *big.Int) error {
	var buf [16]byte
	n.FillBytes(buf[:])
	w.Write(buf[:])
	return nil
}

func (Bool) encode(*bytes.Buffer) error { return nil }
func (None) encode(*bytes.Buffer) error { return nil }

func (v Buffer) encode(w *bytes.Buffer) error {
	writeLen(w, len(v))
	w.Write(v)
	return nil
}

func (v StringASCII) encode(w *bytes.Buffer) error {
	for i := 0; i < len(v); i++ {
		if v[i] > 0x7f {
			return fmt.Errorf("non-ascii byte in string-ascii")
		}
	}
	writeLen(w, len(v))
	w.WriteString(string(v))
	return nil
}

func (v StringUTF8) encode(w *bytes.Buffer) error {
	writeLen(w, len(v))
	w.WriteString(string(v))
	return nil
}

func (v List) encode(w *bytes.Buffer) error {
	writeLen(w, len(v))
	for _, item := range v {
		if err := encodeValue(w, item); err != nil {
			return err
		}
	}
	return nil
}

func (v Tuple) encode(w *bytes.Buffer) error {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	writeLen(w, len(keys))
	for _, k := range keys {
		if len(k) == 0 || len(k) > 128 {
			return fmt.Errorf("invalid tuple key %q", k)
		}
		w.WriteByte(byte(len(k)))
		w.WriteString(k)
		if err := encodeValue(w, v[k]); err != nil {
			return err
		}
	}
	return nil
}

func (v StandardPrincipal) encode(w *bytes.Buffer) error {
	w.WriteByte(v.Address.Version)
	w.Write(v.Address.Hash160[:])
	return nil
}

func (v ContractPrincipal) encode(w *bytes.Buffer) error {
	w.WriteByte(v.Address.Version)
	w.Write(v.Address.Hash160[:])
	w.WriteByte(byte(len(v.Name)))
	w.WriteString(v.Name)
	return nil
}

func (v ResponseOk) encode(w *bytes.Buffer) error  { return encodeValue(w, v.V) }
func (v ResponseErr) encode(w *bytes.Buffer) error { return encodeValue(w, v.V) }
func (v Some) encode(w *bytes.Buffer) error        { return encodeValue(w, v.V) }

func writeLen(w *bytes.Buffer, n int) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(n))
	w.Write(buf[:])
}

func encodeValue(w *bytes.Buffer, v Value) error {
	if v == nil {
		return fmt.Errorf("nil clarity value")
	}
	w.WriteByte(v.clarityType())
	return v.encode(w)
}

// Serialize returns the consensus serialization of v.
func Serialize(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SerializeHex is Serialize with a 0x-prefixed hex encoding, as used by the
// node's read-only call endpoint and the wallet's contract-call request.
func SerializeHex(v Value) (string, error) {
	raw, err := Serialize(v)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(raw), nil
}

// Deserialize parses a single serialized Clarity value.
func Deserialize(raw []byte) (Value, error) {
	r := bytes.NewReader(raw)
	v, err := decodeValue(r, 0)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("trailing %d bytes after clarity value", r.Len())
	}
	return v, nil
}

// DeserializeHex accepts hex with or without the 0x prefix.
func DeserializeHex(s string) (Value, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid clarity hex: %w", err)
	}
	return Deserialize(raw)
}

func decodeValue(r *bytes.Reader, depth int) (Value, error) {
	if depth > maxNestingDepth {
		return nil, fmt.Errorf("clarity value nested too deeply")
	}
	prefix, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read type prefix: %w", err)
	}
	switch prefix {
	case typeInt:
		n, err := readU128(r)
		if err != nil {
			return nil, err
		}
		if n.Bit(127) == 1 {
			n.Sub(n, new(big.Int).Lsh(big.NewInt(1), 128))
		}
		return Int{V: n}, nil
	case typeUInt:
		n, err := readU128(r)
		if err != nil {
			return nil, err
		}
		return UInt{V: n}, nil
	case typeBuffer:
		b, err := readSized(r)
		if err != nil {
			return nil, err
		}
		return Buffer(b), nil
	case typeTrue:
		return Bool(true), nil
	case typeFalse:
		return Bool(false), nil
	case typeStandardPrincipal:
		addr, err := readAddress(r)
		if err != nil {
			return nil, err
		}
		return StandardPrincipal{Address: addr}, nil
	case typeContractPrincipal:
		addr, err := readAddress(r)
		if err != nil {
			return nil, err
		}
		name, err := readShortString(r)
		if err != nil {
			return nil, err
		}
		return ContractPrincipal{Address: addr, Name: name}, nil
	case typeResponseOk, typeResponseErr, typeOptionalSome:
		inner, err := decodeValue(r, depth+1)
		if err != nil {
			return nil, err
		}
		switch prefix {
		case typeResponseOk:
			return ResponseOk{V: inner}, nil
		case typeResponseErr:
			return ResponseErr{V: inner}, nil
		default:
			return Some{V: inner}, nil
		}
	case typeOptionalNone:
		return None{}, nil
	case typeList:
		n, err := readLen(r)
		if err != nil {
			return nil, err
		}
		out := make(List, 0, min(n, 256))
		for i := 0; i < n; i++ {
			item, err := decodeValue(r, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	case typeTuple:
		n, err := readLen(r)
		if err != nil {
			return nil, err
		}
		out := make(Tuple, min(n, 64))
		for i := 0; i < n; i++ {
			key, err := readShortString(r)
			if err != nil {
				return nil, err
			}
			item, err := decodeValue(r, depth+1)
			if err != nil {
				return nil, err
			}
			out[key] = item
		}
		return out, nil
	case typeStringASCII:
		b, err := readSized(r)
		if err != nil {
			return nil, err
		}
		return StringASCII(b), nil
	case typeStringUTF8:
		b, err := readSized(r)
		if err != nil {
			return nil, err
		}
		return StringUTF8(b), nil
	default:
		return nil, fmt.Errorf("unknown clarity type prefix 0x%02x", prefix)
	}
}

func readU128(r *bytes.Reader) (*big.Int, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("read 128-bit integer: %w", err)
	}
	return new(big.Int).SetBytes(buf[:]), nil
}

func readLen(r *bytes.Reader) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("read length: %w", err)
	}
	n := binary.BigEndian.Uint32(buf[:])
	if int64(n) > int64(r.Len()) {
		return 0, fmt.Errorf("length %d exceeds remaining %d bytes", n, r.Len())
	}
	return int(n), nil
}

func readSized(r *bytes.Reader) ([]byte, error) {
	n, err := readLen(r)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", fmt.Errorf("read name length: %w", err)
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", fmt.Errorf("read name: %w", err)
	}
	return string(out), nil
}

func readAddress(r *bytes.Reader) (Address, error) {
	var out Address
	version, err := r.ReadByte()
	if err != nil {
		return out, fmt.Errorf("read principal version: %w", err)
	}
	out.Version = version
	if _, err := io.ReadFull(r, out.Hash160[:]); err != nil {
		return out, fmt.Errorf("read principal hash: %w", err)
	}
	return out, nil
}

// String renders v in Clarity literal syntax, e.g. (ok (tuple (amount u5))).
func String(v Value) string {
	switch t := v.(type) {
	case Int:
		return t.V.String()
	case UInt:
		return "u" + t.V.String()
	case Bool:
		if t {
			return "true"
		}
		return "false"
	case Buffer:
		return "0x" + hex.EncodeToString(t)
	case StringASCII:
		return fmt.Sprintf("%q", string(t))
	case StringUTF8:
		return fmt.Sprintf("u%q", string(t))
	case StandardPrincipal:
		return "'" + t.Address.String()
	case ContractPrincipal:
		return "'" + t.Address.String() + "." + t.Name
	case ResponseOk:
		return "(ok " + String(t.V) + ")"
	case ResponseErr:
		return "(err " + String(t.V) + ")"
	case None:
		return "none"
	case Some:
		return "(some " + String(t.V) + ")"
	case List:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, String(item))
		}
		return "(list " + strings.Join(parts, " ") + ")"
	case Tuple:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, "("+k+" "+String(t[k])+")")
		}
		return "(tuple " + strings.Join(parts, " ") + ")"
	default:
		return "<unknown>"
	}
}
