package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	moduleErrors "github.com/unicitynetwork/unicity-mining-core/errors"
)

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcError is the JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcClient is a minimal JSON-RPC 2.0 client over HTTP Basic auth. It is
// deliberately small: the chain node protocol here is plain HTTP
// JSON-RPC, not a typed gRPC/websocket surface, so there is no
// off-the-shelf client in the dependency set that fits without
// hard-wiring a specific chain's types (see DESIGN.md).
type rpcClient struct {
	baseURL    string
	user       string
	pass       string
	timeout    time.Duration
	httpClient *http.Client
	nextID     uint64 // atomic, monotonic per client
}

func newRPCClient(baseURL, user, pass string, timeout time.Duration) *rpcClient {
	return &rpcClient{
		baseURL: baseURL,
		user:    user,
		pass:    pass,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// call issues one JSON-RPC request and decodes its result into v.
func (c *rpcClient) call(ctx context.Context, method string, params []interface{}, v interface{}) error {
	id := atomic.AddUint64(&c.nextID, 1)
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return moduleErrors.ChainError(moduleErrors.Parse,
			fmt.Sprintf("unable to marshal rpc request %s: %v", method, err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return moduleErrors.ChainError(moduleErrors.TransportRefused,
			fmt.Sprintf("unable to build rpc request %s: %v", method, err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.user, c.pass)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return moduleErrors.ChainError(moduleErrors.TransportTimeout,
				fmt.Sprintf("rpc call %s timed out: %v", method, err))
		}
		if ctx.Err() != nil {
			return moduleErrors.ChainError(moduleErrors.TransportTimeout,
				fmt.Sprintf("rpc call %s cancelled: %v", method, ctx.Err()))
		}
		return moduleErrors.ChainError(moduleErrors.TransportRefused,
			fmt.Sprintf("rpc call %s failed: %v", method, err))
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return moduleErrors.ChainError(moduleErrors.Decode,
			fmt.Sprintf("unable to decode rpc response for %s: %v", method, err))
	}

	if rpcResp.Error != nil {
		return moduleErrors.ChainError(moduleErrors.NodeRPCError,
			fmt.Sprintf("%s: node rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message))
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, v); err != nil {
		return moduleErrors.ChainError(moduleErrors.Decode,
			fmt.Sprintf("unable to decode rpc result for %s: %v", method, err))
	}
	return nil
}
