package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/giantgun/BareBtc/internal/config"
	"github.com/giantgun/BareBtc/internal/stacks"
)

const stubAddress = "ST2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKQYAC0RQ"

func TestProviderFactoryReturnsStubByDefault(t *testing.T) {
	p, err := NewProviderFromConfig(config.Config{WalletStubAddress: stubAddress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*StubProvider); !ok {
		t.Fatalf("expected stub provider by default")
	}
}

func TestProviderFactoryBridgeModeRequiresURL(t *testing.T) {
	if _, err := NewProviderFromConfig(config.Config{WalletMode: "bridge"}); err == nil {
		t.Fatalf("expected error for missing bridge url")
	}
	if _, err := NewProviderFromConfig(config.Config{WalletMode: "ledger"}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func testCall() stacks.ContractCall {
	return stacks.ContractCall{
		Contract:          "STEF284Y9NT9A2DGCTR5KGFHYJ25K08X363DY0ZW.sbtc-pool",
		FunctionName:      "lend",
		FunctionArgs:      []stacks.Value{stacks.NewUInt(1_000_000)},
		PostConditions:    []stacks.PostCondition{stacks.FungibleEq(stubAddress, "ST1F7QA2MDF17S807EPA36TSS8AMEFY4KA9TVGWXT.sbtc-token::sbtc-token", stacks.NewUInt(1_000_000).V)},
		PostConditionMode: stacks.PostConditionDeny,
	}
}

func TestBridgeProviderConnectAndCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		switch req.Method {
		case "getAddresses":
			_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": map[string]any{
				"addresses": []map[string]string{
					{"symbol": "BTC", "address": "tb1qexample"},
					{"symbol": "STX", "address": stubAddress},
				},
			}})
		case "stx_callContract":
			var params struct {
				FunctionName      string   `json:"functionName"`
				FunctionArgs      []string `json:"functionArgs"`
				Network           string   `json:"network"`
				PostConditionMode string   `json:"postConditionMode"`
			}
			_ = json.Unmarshal(req.Params, &params)
			if params.FunctionName != "lend" || params.FunctionArgs[0] != "0x01000000000000000000000000000f4240" {
				t.Fatalf("unexpected params: %+v", params)
			}
			if params.Network != "testnet" || params.PostConditionMode != "deny" {
				t.Fatalf("unexpected network or mode: %+v", params)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 2, "result": map[string]any{"txid": "0xabc"}})
		default:
			t.Fatalf("unexpected method: %s", req.Method)
		}
	}))
	defer srv.Close()

	p, err := NewBridgeProvider(srv.URL, "testnet")
	if err != nil {
		t.Fatalf("new bridge: %v", err)
	}
	addrs, err := p.Connect(context.Background())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got, ok := FirstSTX(addrs); !ok || got != stubAddress {
		t.Fatalf("unexpected first stx address %q", got)
	}
	if !p.IsConnected(context.Background()) {
		t.Fatalf("expected connected")
	}
	txid, err := p.CallContract(context.Background(), testCall())
	if err != nil || txid != "0xabc" {
		t.Fatalf("unexpected call result %q (%v)", txid, err)
	}
}

func TestBridgeProviderMapsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "error": map[string]any{"code": 4001, "message": "User rejected request"}})
	}))
	defer srv.Close()

	p, _ := NewBridgeProvider(srv.URL, "testnet")
	if _, err := p.Connect(context.Background()); !errors.Is(err, ErrUserRejected) {
		t.Fatalf("expected ErrUserRejected, got %v", err)
	}
	if p.IsConnected(context.Background()) {
		t.Fatalf("did not expect connected after rejection")
	}
}

func TestStubProviderRequiresConnection(t *testing.T) {
	p, err := NewStubProvider(stubAddress)
	if err != nil {
		t.Fatalf("new stub: %v", err)
	}
	if _, err := p.CallContract(context.Background(), testCall()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if _, err := p.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	txid, err := p.CallContract(context.Background(), testCall())
	if err != nil || len(txid) != 66 {
		t.Fatalf("unexpected txid %q (%v)", txid, err)
	}
	if len(p.Calls()) != 1 {
		t.Fatalf("expected one recorded call")
	}
}
