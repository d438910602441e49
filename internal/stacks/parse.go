package stacks

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrResponseErr is returned when a contract answered with (err ...).
var ErrResponseErr = errors.New("contract returned err response")

// UnwrapOk returns the inner value of an (ok ...) response.
func UnwrapOk(v Value) (Value, error) {
	switch t := v.(type) {
	case ResponseOk:
		return t.V, nil
	case ResponseErr:
		return nil, fmt.Errorf("%w: %s", ErrResponseErr, String(t.V))
	default:
		return nil, fmt.Errorf("expected response, got %s", String(v))
	}
}

// UnwrapOkTuple unwraps (ok (tuple ...)).
func UnwrapOkTuple(v Value) (Tuple, error) {
	inner, err := UnwrapOk(v)
	if err != nil {
		return nil, err
	}
	return AsTuple(inner)
}

func AsTuple(v Value) (Tuple, error) {
	t, ok := v.(Tuple)
	if !ok {
		return nil, fmt.Errorf("expected tuple, got %s", String(v))
	}
	return t, nil
}

func AsUInt(v Value) (*big.Int, error) {
	u, ok := v.(UInt)
	if !ok || u.V == nil {
		return nil, fmt.Errorf("expected uint, got %s", String(v))
	}
	return u.V, nil
}

// Field returns a tuple member or an error naming the missing key.
func (t Tuple) Field(key string) (Value, error) {
	v, ok := t[key]
	if !ok {
		return nil, fmt.Errorf("missing tuple field %q", key)
	}
	return v, nil
}

func (t Tuple) UInt(key string) (*big.Int, error) {
	v, err := t.Field(key)
	if err != nil {
		return nil, err
	}
	n, err := AsUInt(v)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	return n, nil
}

// Uint64 reads a uint field that must fit in 64 bits (block heights, rates).
func (t Tuple) Uint64(key string) (uint64, error) {
	n, err := t.UInt(key)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("field %q: value %s overflows uint64", key, n.String())
	}
	return n.Uint64(), nil
}

// Optional reads an optional field. It returns the inner value and whether it
// was (some ...).
func (t Tuple) Optional(key string) (Value, bool, error) {
	v, err := t.Field(key)
	if err != nil {
		return nil, false, err
	}
	switch o := v.(type) {
	case None:
		return nil, false, nil
	case Some:
		return o.V, true, nil
	default:
		return nil, false, fmt.Errorf("field %q: expected optional, got %s", key, String(v))
	}
}

// OptionalTuple reads an optional field holding a tuple.
func (t Tuple) OptionalTuple(key string) (Tuple, bool, error) {
	inner, ok, err := t.Optional(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	tup, err := AsTuple(inner)
	if err != nil {
		return nil, false, fmt.Errorf("field %q: %w", key, err)
	}
	return tup, true, nil
}
