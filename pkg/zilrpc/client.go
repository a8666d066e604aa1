// Package zilrpc talks JSON-RPC to the chain's public API nodes.
package zilrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

// JSON-RPC methods used by the client
const (
	MethodGetSmartContractSubState = "GetSmartContractSubState"
	MethodGetNumTxBlocks           = "GetNumTxBlocks"
)

// DefaultTimeout bounds a single call against a single endpoint.
const DefaultTimeout = 30 * time.Second

// Sentinel errors
var (
	ErrDialFailed     = errors.New("dialing endpoint failed")
	ErrCallFailed     = errors.New("RPC call failed")
	ErrEmptyResult    = errors.New("RPC response has no result")
	ErrInvalidResult  = errors.New("RPC result is malformed")
	ErrClientIsClosed = errors.New("client is closed")
)

// RPCError is an error object returned by the node, e.g. for an unknown address.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client issues calls against any endpoint it is given. It keeps one go-ethereum
// rpc.Client per endpoint, dialled on first use.
type Client struct {
	httpClient *http.Client

	mu     sync.Mutex
	conns  map[string]*rpc.Client
	closed bool
}

// NewClient creates a Client with a default HTTP client
func NewClient() *Client {
	return NewClientWithHTTP(&http.Client{Timeout: DefaultTimeout})
}

// NewClientWithHTTP creates a Client using the given HTTP client for every endpoint
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		conns:      make(map[string]*rpc.Client),
	}
}

// GetSmartContractSubState reads one named field of a contract, optionally narrowed by
// map keys. The returned JSON object has the field name as its only top-level key.
func (c *Client) GetSmartContractSubState(ctx context.Context, endpoint, contract, field string, indices []string) (json.RawMessage, error) {
	conn, err := c.conn(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if indices == nil {
		indices = []string{}
	}

	var result json.RawMessage
	err = conn.CallContext(ctx, &result, MethodGetSmartContractSubState, stripHexPrefix(contract), field, indices)
	if err != nil {
		return nil, callError(err)
	}

	if isEmpty(result) {
		return nil, fmt.Errorf("%w: %s.%s", ErrEmptyResult, contract, field)
	}

	return result, nil
}

// GetNumTxBlocks returns the number of transaction blocks the endpoint knows about.
func (c *Client) GetNumTxBlocks(ctx context.Context, endpoint string) (uint64, error) {
	conn, err := c.conn(ctx, endpoint)
	if err != nil {
		return 0, err
	}

	var result json.RawMessage
	if err := conn.CallContext(ctx, &result, MethodGetNumTxBlocks); err != nil {
		return 0, callError(err)
	}

	if isEmpty(result) {
		return 0, ErrEmptyResult
	}

	// The node answers with a decimal string; accept a bare number as well.
	var s string
	if err := json.Unmarshal(result, &s); err != nil {
		s = string(result)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}

	return n, nil
}

// Close closes every cached connection. Calls made after Close fail.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for ep, conn := range c.conns {
		conn.Close()
		delete(c.conns, ep)
	}
	c.closed = true
}

func (c *Client) conn(ctx context.Context, endpoint string) (*rpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientIsClosed
	}

	if conn, ok := c.conns[endpoint]; ok {
		return conn, nil
	}

	conn, err := rpc.DialOptions(ctx, endpoint, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDialFailed, endpoint, err)
	}
	c.conns[endpoint] = conn

	return conn, nil
}

// callError maps transport errors onto the package's error values
func callError(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%w: %w", ErrCallFailed, &RPCError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()})
	}
	if errors.Is(err, rpc.ErrNoResult) {
		return ErrEmptyResult
	}
	return fmt.Errorf("%w: %w", ErrCallFailed, err)
}

func isEmpty(result json.RawMessage) bool {
	trimmed := bytes.TrimSpace(result)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte("{}"))
}

func stripHexPrefix(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	return strings.TrimPrefix(addr, "0x")
}
