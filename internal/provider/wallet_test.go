package provider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cosmospool/cosmospool/internal/chain"
	"github.com/cosmospool/cosmospool/internal/chain/eth/rpc"
)

const (
	alice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	bob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	token = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
	pool  = "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
)

type walletRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     uint64            `json:"id"`
}

// fakeWallet is a scriptable JSON-RPC wallet endpoint.
type fakeWallet struct {
	mu       sync.Mutex
	accounts []string
	handlers map[string]func(walletRequest) (any, *rpc.Error)
	calls    map[string]int
	drops    map[string]int
	server   *httptest.Server
}

func newFakeWallet(t *testing.T, accounts ...string) *fakeWallet {
	t.Helper()
	w := &fakeWallet{
		accounts: accounts,
		handlers: make(map[string]func(walletRequest) (any, *rpc.Error)),
		calls:    make(map[string]int),
		drops:    make(map[string]int),
	}
	w.server = httptest.NewServer(http.HandlerFunc(w.serve))
	t.Cleanup(w.server.Close)
	return w
}

func (w *fakeWallet) serve(rw http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	w.mu.Lock()
	w.calls[req.Method]++
	handler, ok := w.handlers[req.Method]
	accounts := append([]string{}, w.accounts...)
	drop := w.drops[req.Method] > 0
	if drop {
		w.drops[req.Method]--
	}
	w.mu.Unlock()

	if drop {
		hangUp(rw)
		return
	}

	var result any
	var rpcErr *rpc.Error
	switch {
	case ok:
		result, rpcErr = handler(req)
	case req.Method == "eth_accounts" || req.Method == "eth_requestAccounts":
		result = accounts
	case req.Method == "eth_chainId":
		result = "0x1"
	default:
		rpcErr = &rpc.Error{Code: rpc.CodeMethodNotFound, Message: "method not found"}
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	_ = json.NewEncoder(rw).Encode(resp)
}

func (w *fakeWallet) handle(method string, h func(walletRequest) (any, *rpc.Error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[method] = h
}

// dropNext closes the connection of the next n requests for method without
// answering them.
func (w *fakeWallet) dropNext(method string, n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drops[method] = n
}

func hangUp(rw http.ResponseWriter) {
	hj, ok := rw.(http.Hijacker)
	if !ok {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	_ = conn.Close()
}

func (w *fakeWallet) setAccounts(accounts ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accounts = accounts
}

func (w *fakeWallet) callCount(method string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[method]
}

func (w *fakeWallet) provider(t *testing.T) *RPCProvider {
	t.Helper()
	p := New(Config{
		URL:                  w.server.URL,
		AccountsPollInterval: 10 * time.Millisecond,
		ReceiptPollInterval:  5 * time.Millisecond,
		Retry:                chain.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	})
	t.Cleanup(p.Close)
	return p
}

func assertEventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}
