// Package session holds the single wallet session the backend acts for.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/giantgun/BareBtc/internal/stacks"
	"github.com/giantgun/BareBtc/internal/wallet"
)

var ErrConnectionFailed = errors.New("connection_failed")

const defaultConnectTimeout = 2 * time.Minute

// Session is the connected account. Epoch changes on every connect,
// disconnect or restore; results computed under an older epoch are stale.
type Session struct {
	AccountAddress string `json:"account_address"`
	Connected      bool   `json:"connected"`
	Epoch          uint64 `json:"epoch"`
}

type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventRestored     EventKind = "restored"
	EventDisconnected EventKind = "disconnected"
)

type Event struct {
	Kind    EventKind
	Session Session
}

// Listener receives session changes in the order they happened.
type Listener interface {
	SessionChanged(Event)
}

type Store struct {
	provider       wallet.Provider
	logger         *slog.Logger
	connectTimeout time.Duration

	// changeMu serializes connect/disconnect so events leave in order.
	changeMu sync.Mutex
	mu       sync.RWMutex
	current  Session
	listener Listener
}

func NewStore(provider wallet.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{provider: provider, logger: logger, connectTimeout: defaultConnectTimeout}
}

// Subscribe sets the single listener. A later call replaces it.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Connect runs the wallet authorization flow and binds the first STX account.
// Any failure leaves the session untouched.
func (s *Store) Connect(ctx context.Context) (Session, error) {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	addrs, err := s.provider.Connect(ctx)
	if err != nil {
		s.logger.Warn("wallet connect failed", "err", err)
		return s.Current(), fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	address, ok := wallet.FirstSTX(addrs)
	if !ok {
		return s.Current(), fmt.Errorf("%w: wallet returned no stx address", ErrConnectionFailed)
	}
	if _, err := stacks.ParseAddress(address); err != nil {
		return s.Current(), fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return s.set(EventConnected, address), nil
}

// Restore rebinds an authorization the wallet already holds, without
// prompting. It reports whether a session is bound afterwards; a session
// already bound to the same account is left as is.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	addrs, err := s.provider.Addresses(ctx)
	if err != nil {
		if errors.Is(err, wallet.ErrNotConnected) {
			return false, nil
		}
		return false, fmt.Errorf("restore session: %w", err)
	}
	address, ok := wallet.FirstSTX(addrs)
	if !ok {
		return false, nil
	}
	if cur := s.Current(); cur.Connected && cur.AccountAddress == address {
		return true, nil
	}
	s.set(EventRestored, address)
	return true, nil
}

// Disconnect clears the session even if the wallet fails to acknowledge.
func (s *Store) Disconnect(ctx context.Context) Session {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	if err := s.provider.Disconnect(ctx); err != nil {
		s.logger.Warn("wallet disconnect failed", "err", err)
	}
	return s.set(EventDisconnected, "")
}

func (s *Store) set(kind EventKind, address string) Session {
	s.mu.Lock()
	s.current = Session{
		AccountAddress: address,
		Connected:      address != "",
		Epoch:          s.current.Epoch + 1,
	}
	snapshot := s.current
	listener := s.listener
	s.mu.Unlock()

	s.logger.Info("session changed", "kind", kind, "address", address, "epoch", snapshot.Epoch)
	if listener != nil {
		listener.SessionChanged(Event{Kind: kind, Session: snapshot})
	}
	return snapshot
}
