package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/giantgun/BareBtc/internal/config"
	"github.com/giantgun/BareBtc/internal/stacks"
)

var (
	// ErrUserRejected is returned when the wallet owner declined a prompt.
	ErrUserRejected = errors.New("wallet: request rejected by user")
	ErrNotConnected = errors.New("wallet: not connected")
)

const SymbolSTX = "STX"

// Address is one account the wallet exposes.
type Address struct {
	Symbol    string `json:"symbol"`
	Address   string `json:"address"`
	PublicKey string `json:"publicKey,omitempty"`
}

// Provider is the wallet authorization provider. Connect may prompt the
// owner; Addresses only reports an authorization the wallet already holds.
type Provider interface {
	Connect(ctx context.Context) ([]Address, error)
	Disconnect(ctx context.Context) error
	IsConnected(ctx context.Context) bool
	Addresses(ctx context.Context) ([]Address, error)
	CallContract(ctx context.Context, call stacks.ContractCall) (string, error)
}

// FirstSTX picks the first STX account, the one the session binds to.
func FirstSTX(addrs []Address) (string, bool) {
	for _, a := range addrs {
		if strings.EqualFold(a.Symbol, SymbolSTX) || (a.Symbol == "" && strings.HasPrefix(a.Address, "S")) {
			return a.Address, true
		}
	}
	return "", false
}

func NewProviderFromConfig(cfg config.Config) (Provider, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.WalletMode))
	if mode == "" || mode == "stub" {
		return NewStubProvider(cfg.WalletStubAddress)
	}
	if mode != "bridge" {
		return nil, fmt.Errorf("invalid WALLET_MODE: %s", cfg.WalletMode)
	}
	return NewBridgeProvider(cfg.WalletBridgeURL, cfg.StacksNetwork)
}
