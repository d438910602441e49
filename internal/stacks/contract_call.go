package stacks

import (
	"fmt"
	"math/big"
	"strings"
)

type PostConditionMode string

const (
	// PostConditionDeny aborts unless every listed post-condition holds and no
	// unlisted asset moves.
	PostConditionDeny  PostConditionMode = "deny"
	PostConditionAllow PostConditionMode = "allow"
)

type ConditionCode string

const (
	ConditionEq  ConditionCode = "eq"
	ConditionGt  ConditionCode = "gt"
	ConditionGte ConditionCode = "gte"
	ConditionLt  ConditionCode = "lt"
	ConditionLte ConditionCode = "lte"
)

// PostCondition is a fungible-token transfer assertion in the JSON shape
// wallets accept for stx_callContract.
type PostCondition struct {
	Type      string        `json:"type"`
	Address   string        `json:"address"`
	Condition ConditionCode `json:"condition"`
	Asset     string        `json:"asset"`
	Amount    string        `json:"amount"`
}

// FungibleEq asserts that principal sends exactly amount base units of asset.
func FungibleEq(principal, asset string, amount *big.Int) PostCondition {
	return PostCondition{
		Type:      "ft-postcondition",
		Address:   principal,
		Condition: ConditionEq,
		Asset:     asset,
		Amount:    amount.String(),
	}
}

// AssetID builds "ADDR.contract::token".
func AssetID(contractAddress, contractName, tokenName string) string {
	return fmt.Sprintf("%s.%s::%s", contractAddress, contractName, tokenName)
}

// ContractID builds "ADDR.contract".
func ContractID(contractAddress, contractName string) string {
	return contractAddress + "." + contractName
}

// ContractCall is a state-changing call handed to the wallet for signing.
type ContractCall struct {
	Contract          string
	FunctionName      string
	FunctionArgs      []Value
	Network           string
	PostConditions    []PostCondition
	PostConditionMode PostConditionMode
}

// Validate checks the call is well formed before it leaves the process.
func (c ContractCall) Validate() error {
	addr, name, ok := strings.Cut(c.Contract, ".")
	if !ok || name == "" {
		return fmt.Errorf("invalid contract id %q", c.Contract)
	}
	if _, err := ParseAddress(addr); err != nil {
		return err
	}
	if strings.TrimSpace(c.FunctionName) == "" {
		return fmt.Errorf("missing function name")
	}
	if c.PostConditionMode != PostConditionDeny && c.PostConditionMode != PostConditionAllow {
		return fmt.Errorf("invalid post-condition mode %q", c.PostConditionMode)
	}
	for _, pc := range c.PostConditions {
		n, ok := new(big.Int).SetString(pc.Amount, 10)
		if !ok || n.Sign() < 0 {
			return fmt.Errorf("invalid post-condition amount %q", pc.Amount)
		}
	}
	return nil
}

// EncodedArgs returns the hex-serialized function arguments.
func (c ContractCall) EncodedArgs() ([]string, error) {
	out := make([]string, 0, len(c.FunctionArgs))
	for i, arg := range c.FunctionArgs {
		encoded, err := SerializeHex(arg)
		if err != nil {
			return nil, fmt.Errorf("encode arg %d: %w", i, err)
		}
		out = append(out, encoded)
	}
	return out, nil
}
