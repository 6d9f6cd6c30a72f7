package session

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cosmospool/cosmospool/internal/chain"
	"github.com/cosmospool/cosmospool/internal/chain/eth"
	"github.com/cosmospool/cosmospool/internal/provider"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// NativeDecimals is the precision of the chain's native currency.
const NativeDecimals = 18

// backgroundTimeout bounds reads triggered by provider events.
const backgroundTimeout = 15 * time.Second

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l LogWriter) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEventRecorder reports session transitions to r.
func WithEventRecorder(r EventRecorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// Store owns the connection state. Construct one per composition root and
// inject it; the zero value is not usable.
type Store struct {
	provider  provider.Provider
	addresses AddressStore
	logger    LogWriter
	recorder  EventRecorder
	connect   singleflight.Group

	mu        sync.Mutex
	state     Session
	observers map[uint64]func(Session)
	nextID    uint64
	unwatch   func()
}

// NewStore creates a disconnected Store.
func NewStore(p provider.Provider, addresses AddressStore, opts ...Option) *Store {
	if addresses == nil {
		addresses = NewMemoryAddressStore("")
	}
	s := &Store{
		provider:  p,
		addresses: addresses,
		logger:    nopLogger{},
		recorder:  nopRecorder{},
		observers: make(map[uint64]func(Session)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every state change.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, id)
		})
	}
}

// Initialize silently reattaches to a previously connected account.
// It never prompts; failures are logged and leave the store disconnected.
// A persisted session that cannot be read is discarded.
func (s *Store) Initialize(ctx context.Context) {
	saved, err := s.addresses.Load()
	if err != nil {
		s.logger.Error("discarding unreadable persisted session: %v", err)
		s.clearPersisted()
		return
	}
	if saved == "" {
		return
	}

	accounts, err := s.provider.Accounts(ctx)
	if err != nil {
		s.logger.Debug("silent reattach failed: %v", err)
		return
	}
	if len(accounts) == 0 {
		s.logger.Debug("persisted account %s no longer authorized", saved)
		s.clearPersisted()
		return
	}

	chosen := accounts[0]
	for _, a := range accounts {
		if eth.EqualAddress(a, saved) {
			chosen = a
			break
		}
	}

	address, err := eth.NormalizeAddress(chosen)
	if err != nil {
		s.logger.Error("provider returned invalid account %q: %v", chosen, err)
		return
	}

	s.setAccount(address, EventReattached)
	s.refreshDetails(ctx, address)
}

// Connect requests account authorization and connects to the first account.
// Concurrent calls share a single wallet prompt. On failure the state is
// left unchanged and the provider error is returned.
func (s *Store) Connect(ctx context.Context) (string, error) {
	v, err, shared := s.connect.Do("connect", func() (any, error) {
		return s.doConnect(ctx)
	})
	if shared {
		s.logger.Debug("connect joined an in-flight request")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil //nolint:forcetypeassert // doConnect always returns a string
}

func (s *Store) doConnect(ctx context.Context) (string, error) {
	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		s.logger.Debug("connect failed: %v", err)
		return "", err
	}
	if len(accounts) == 0 {
		return "", poolerr.WithDetails(poolerr.ErrUserRejected, map[string]string{
			"reason": "wallet authorized no accounts",
		})
	}

	address, err := eth.NormalizeAddress(accounts[0])
	if err != nil {
		return "", poolerr.WithCause(poolerr.ErrRPC, err)
	}

	s.setAccount(address, EventConnected)
	s.refreshDetails(ctx, address)
	return address, nil
}

// Disconnect forgets the current account locally. Wallet-side authorization
// is untouched. It returns false, without notifying observers, when already
// disconnected.
func (s *Store) Disconnect() bool {
	return s.reset()
}

// RefreshBalance re-reads the native balance of the connected account.
// It is a no-op when disconnected.
func (s *Store) RefreshBalance(ctx context.Context) error {
	s.mu.Lock()
	address := s.state.Address
	s.mu.Unlock()
	if address == "" {
		return nil
	}

	balance, err := s.provider.GetBalance(ctx, address)
	if err != nil {
		s.logger.Error("refreshing balance for %s: %v", address, err)
		return err
	}

	amount := chain.NewAmount(balance, NativeDecimals)
	s.update(func(st *Session) bool {
		if !eth.EqualAddress(st.Address, address) {
			return false
		}
		st.CachedBalance = &amount
		return true
	})
	return nil
}

// HandleAccountsChanged applies a wallet-side account switch.
func (s *Store) HandleAccountsChanged(accounts []string) {
	if len(accounts) == 0 {
		s.logger.Debug("wallet reports no authorized accounts")
		s.reset()
		return
	}

	address, err := eth.NormalizeAddress(accounts[0])
	if err != nil {
		s.logger.Error("provider returned invalid account %q: %v", accounts[0], err)
		return
	}

	if !s.setAccount(address, EventAccountChanged) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()
	_ = s.RefreshBalance(ctx)
}

// Watch follows wallet-side account changes until Close. Calling it twice is a no-op.
// A connected store first reconciles with the wallet so that a switch or
// revocation since Initialize is not missed.
func (s *Store) Watch() {
	s.mu.Lock()
	if s.unwatch != nil {
		s.mu.Unlock()
		return
	}
	s.unwatch = s.provider.OnAccountsChanged(s.HandleAccountsChanged)
	connected := s.state.IsConnected
	s.mu.Unlock()

	if !connected {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()
	accounts, err := s.provider.Accounts(ctx)
	if err != nil {
		s.logger.Debug("reconciling accounts before watch: %v", err)
		return
	}
	s.HandleAccountsChanged(accounts)
}

// Close stops watching the provider and drops all observers.
func (s *Store) Close() {
	s.mu.Lock()
	unwatch := s.unwatch
	s.unwatch = nil
	s.observers = make(map[uint64]func(Session))
	s.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
}

// setAccount makes address the active account. It reports whether the state changed.
func (s *Store) setAccount(address, event string) bool {
	changed := s.update(func(st *Session) bool {
		if st.IsConnected && eth.EqualAddress(st.Address, address) {
			return false
		}
		st.IsConnected = true
		st.Address = address
		st.CachedBalance = nil
		return true
	})
	if !changed {
		return false
	}

	if err := s.addresses.Save(address); err != nil {
		s.logger.Error("persisting session: %v", err)
	}
	s.recorder.RecordSessionEvent(event)
	s.logger.Debug("session %s: %s", event, address)
	return true
}

// reset returns to the disconnected state and clears the persisted address.
func (s *Store) reset() bool {
	changed := s.update(func(st *Session) bool {
		if !st.IsConnected {
			return false
		}
		*st = Session{}
		return true
	})

	s.clearPersisted()
	if changed {
		s.recorder.RecordSessionEvent(EventDisconnected)
		s.logger.Debug("session disconnected")
	}
	return changed
}

func (s *Store) clearPersisted() {
	if err := s.addresses.Clear(); err != nil {
		s.logger.Error("clearing persisted session: %v", err)
	}
}

// refreshDetails fetches chain id and balance after a connect. Failures are logged.
func (s *Store) refreshDetails(ctx context.Context, address string) {
	if id, err := s.provider.ChainID(ctx); err != nil {
		s.logger.Debug("reading chain id: %v", err)
	} else {
		s.update(func(st *Session) bool {
			if !eth.EqualAddress(st.Address, address) {
				return false
			}
			st.ChainID = id
			return true
		})
	}
	_ = s.RefreshBalance(ctx)
}

// update applies fn under the lock and, if it reports a change, notifies
// observers outside the lock.
func (s *Store) update(fn func(*Session) bool) bool {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	snapshot := s.state.clone()
	observers := make([]func(Session), 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(snapshot.clone())
	}
	return true
}
