package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giantgun/BareBtc/internal/stacks"
)

// codeUserRejected is the JSON-RPC error code wallets use for a declined prompt.
const codeUserRejected = 4001

// BridgeProvider speaks JSON-RPC 2.0 to a wallet bridge.
type BridgeProvider struct {
	httpURL    string
	network    string
	httpClient *http.Client
	nextID     atomic.Int64

	mu        sync.RWMutex
	connected bool
	addresses []Address
}

func NewBridgeProvider(httpURL, network string) (*BridgeProvider, error) {
	if strings.TrimSpace(httpURL) == "" {
		return nil, fmt.Errorf("missing WALLET_BRIDGE_URL")
	}
	if strings.TrimSpace(network) == "" {
		network = "testnet"
	}
	return &BridgeProvider{
		httpURL:    strings.TrimSpace(httpURL),
		network:    strings.TrimSpace(network),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (p *BridgeProvider) Connect(ctx context.Context) ([]Address, error) {
	addrs, err := p.getAddresses(ctx, "getAddresses")
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.connected = true
	p.addresses = addrs
	p.mu.Unlock()
	return addrs, nil
}

func (p *BridgeProvider) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	p.connected = false
	p.addresses = nil
	p.mu.Unlock()

	var ignored json.RawMessage
	return p.rpc(ctx, "disconnect", nil, &ignored)
}

func (p *BridgeProvider) IsConnected(context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// Addresses asks the bridge for accounts it is already authorized for, without
// prompting.
func (p *BridgeProvider) Addresses(ctx context.Context) ([]Address, error) {
	addrs, err := p.getAddresses(ctx, "stx_getAddresses")
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.connected = len(addrs) > 0
	p.addresses = addrs
	p.mu.Unlock()
	return addrs, nil
}

func (p *BridgeProvider) CallContract(ctx context.Context, call stacks.ContractCall) (string, error) {
	if err := call.Validate(); err != nil {
		return "", err
	}
	args, err := call.EncodedArgs()
	if err != nil {
		return "", err
	}
	network := call.Network
	if network == "" {
		network = p.network
	}
	params := map[string]any{
		"contract":          call.Contract,
		"functionName":      call.FunctionName,
		"functionArgs":      args,
		"network":           network,
		"postConditions":    call.PostConditions,
		"postConditionMode": call.PostConditionMode,
	}
	var out struct {
		TxID string `json:"txid"`
	}
	if err := p.rpc(ctx, "stx_callContract", params, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.TxID) == "" {
		return "", fmt.Errorf("wallet returned empty txid")
	}
	return out.TxID, nil
}

func (p *BridgeProvider) getAddresses(ctx context.Context, method string) ([]Address, error) {
	var out struct {
		Addresses []Address `json:"addresses"`
	}
	if err := p.rpc(ctx, method, nil, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

func (p *BridgeProvider) rpc(ctx context.Context, method string, params any, out any) error {
	envelope := map[string]any{
		"jsonrpc": "2.0",
		"id":      p.nextID.Add(1),
		"method":  method,
	}
	if params != nil {
		envelope["params"] = params
	}
	reqBody, _ := json.Marshal(envelope)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.httpURL, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var payload struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}
	if payload.Error != nil {
		if payload.Error.Code == codeUserRejected {
			return fmt.Errorf("%w: %s", ErrUserRejected, payload.Error.Message)
		}
		return fmt.Errorf("wallet rpc error %d: %s", payload.Error.Code, payload.Error.Message)
	}
	if len(payload.Result) == 0 {
		return fmt.Errorf("wallet rpc empty result")
	}
	return json.Unmarshal(payload.Result, out)
}
