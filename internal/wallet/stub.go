package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/giantgun/BareBtc/internal/stacks"
)

// StubProvider is an always-approving wallet for local development.
type StubProvider struct {
	address string

	mu        sync.Mutex
	connected bool
	calls     []stacks.ContractCall
}

func NewStubProvider(address string) (*StubProvider, error) {
	if _, err := stacks.ParseAddress(address); err != nil {
		return nil, fmt.Errorf("invalid WALLET_STUB_ADDRESS: %w", err)
	}
	return &StubProvider{address: address}, nil
}

func (p *StubProvider) Connect(context.Context) ([]Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	return []Address{{Symbol: SymbolSTX, Address: p.address}}, nil
}

func (p *StubProvider) Disconnect(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	return nil
}

func (p *StubProvider) IsConnected(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *StubProvider) Addresses(context.Context) ([]Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return nil, ErrNotConnected
	}
	return []Address{{Symbol: SymbolSTX, Address: p.address}}, nil
}

func (p *StubProvider) CallContract(_ context.Context, call stacks.ContractCall) (string, error) {
	if err := call.Validate(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return "", ErrNotConnected
	}
	p.calls = append(p.calls, call)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", call.Contract, call.FunctionName, time.Now().UTC().UnixNano())))
	return "0x" + hex.EncodeToString(sum[:]), nil
}

// Calls returns the contract calls signed so far.
func (p *StubProvider) Calls() []stacks.ContractCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]stacks.ContractCall, len(p.calls))
	copy(out, p.calls)
	return out
}
