package stacks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned for 404s, e.g. a txid the API has not indexed yet.
var ErrNotFound = errors.New("stacks api: not found")

// ReadOnlyCall addresses one read-only contract function.
type ReadOnlyCall struct {
	ContractAddress string
	ContractName    string
	FunctionName    string
	Args            []Value
	Sender          string
}

// CallError is a read-only call the node refused to evaluate ({"okay": false}).
type CallError struct {
	Function string
	Cause    string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("read-only call %s failed: %s", e.Function, e.Cause)
}

// TxStatus is the node's view of a submitted transaction.
type TxStatus string

const (
	TxStatusPending              TxStatus = "pending"
	TxStatusSuccess              TxStatus = "success"
	TxStatusAbortByResponse      TxStatus = "abort_by_response"
	TxStatusAbortByPostCondition TxStatus = "abort_by_post_condition"
	TxStatusDroppedReplaceByFee  TxStatus = "dropped_replace_by_fee"
	TxStatusDroppedReplaceAcross TxStatus = "dropped_replace_across_fork"
	TxStatusDroppedTooExpensive  TxStatus = "dropped_too_expensive"
	TxStatusDroppedStaleGarbage  TxStatus = "dropped_stale_garbage_collect"
	TxStatusDroppedProblematic   TxStatus = "dropped_problematic"
	TxStatusUnknown              TxStatus = "unknown"
)

// Client talks to a Stacks node / Hiro API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL string, requestsPerSecond float64) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing STACKS_API_URL")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid STACKS_API_URL: %w", err)
	}
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = max(1, int(requestsPerSecond))
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		limiter:    rate.NewLimiter(limit, burst),
	}, nil
}

// CallReadOnly evaluates a read-only function and returns its decoded result.
func (c *Client) CallReadOnly(ctx context.Context, call ReadOnlyCall) (Value, error) {
	args := make([]string, 0, len(call.Args))
	for i, arg := range call.Args {
		encoded, err := SerializeHex(arg)
		if err != nil {
			return nil, fmt.Errorf("encode arg %d of %s: %w", i, call.FunctionName, err)
		}
		args = append(args, encoded)
	}
	body, _ := json.Marshal(map[string]any{
		"sender":    call.Sender,
		"arguments": args,
	})
	path := fmt.Sprintf("/v2/contracts/call-read/%s/%s/%s",
		url.PathEscape(call.ContractAddress), url.PathEscape(call.ContractName), url.PathEscape(call.FunctionName))

	raw, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Okay   bool   `json:"okay"`
		Result string `json:"result"`
		Cause  string `json:"cause"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode call-read response: %w", err)
	}
	if !payload.Okay {
		return nil, &CallError{Function: call.FunctionName, Cause: payload.Cause}
	}
	return DeserializeHex(payload.Result)
}

// STXBalance returns the unlocked-plus-locked STX balance in micro-STX.
func (c *Client) STXBalance(ctx context.Context, address string) (*big.Int, error) {
	raw, err := c.do(ctx, http.MethodGet, "/extended/v1/address/"+url.PathEscape(address)+"/stx", nil)
	if err != nil {
		return nil, err
	}
	res := gjson.GetBytes(raw, "balance")
	if !res.Exists() {
		return nil, fmt.Errorf("stx balance response missing balance")
	}
	n, ok := new(big.Int).SetString(res.String(), 10)
	if !ok {
		return nil, fmt.Errorf("invalid stx balance %q", res.String())
	}
	return n, nil
}

// TipHeight returns the current Stacks chain tip height.
func (c *Client) TipHeight(ctx context.Context) (uint64, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v2/info", nil)
	if err != nil {
		return 0, err
	}
	res := gjson.GetBytes(raw, "stacks_tip_height")
	if !res.Exists() || res.Type != gjson.Number {
		return 0, fmt.Errorf("info response missing stacks_tip_height")
	}
	return res.Uint(), nil
}

// TransactionStatus looks up a submitted transaction.
func (c *Client) TransactionStatus(ctx context.Context, txID string) (TxStatus, error) {
	id := strings.TrimSpace(txID)
	if id == "" {
		return TxStatusUnknown, fmt.Errorf("missing txid")
	}
	if !strings.HasPrefix(id, "0x") {
		id = "0x" + id
	}
	raw, err := c.do(ctx, http.MethodGet, "/extended/v1/tx/"+url.PathEscape(id), nil)
	if errors.Is(err, ErrNotFound) {
		return TxStatusUnknown, nil
	}
	if err != nil {
		return TxStatusUnknown, err
	}
	status := gjson.GetBytes(raw, "tx_status").String()
	if status == "" {
		return TxStatusUnknown, fmt.Errorf("tx response missing tx_status")
	}
	return TxStatus(status), nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(gjson.GetBytes(raw, "error").String())
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("stacks api %s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	return raw, nil
}
