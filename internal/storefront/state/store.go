package state

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jcmexdev/storefront/internal/storefront/api"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/storage"
)

var (
	_ Reader     = (*Store)(nil)
	_ Dispatcher = (*Store)(nil)
)

type request struct {
	action Action
	reply  chan State
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store serializes every state change through one goroutine. Dispatch blocks
// until its action has been applied, so each mutation observes the previous
// one.
type Store struct {
	backend Backend
	local   storage.LocalStorage
	log     *slog.Logger

	snap    atomic.Pointer[State]
	updates chan request
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once

	subsMu  sync.Mutex
	subs    map[int]chan State
	nextSub int
	closed  bool
}

// New builds a Store and restores the persisted cart from local.
func New(backend Backend, local storage.LocalStorage, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		local:   local,
		log:     slog.Default(),
		updates: make(chan request),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		subs:    make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}

	st := initialState()
	st.Cart.Items = s.loadCart(context.Background())
	s.snap.Store(&st)

	go s.loop()
	return s
}

// State returns the latest snapshot.
func (s *Store) State() State {
	return *s.snap.Load()
}

// Dispatch validates a, applies it on the store loop and returns the
// resulting snapshot. Invalid actions are rejected with ErrInvalidAction and
// leave the state untouched.
func (s *Store) Dispatch(ctx context.Context, a Action) (State, error) {
	if v, ok := a.(validator); ok {
		if err := v.validate(); err != nil {
			return s.State(), err
		}
	}

	req := request{action: a, reply: make(chan State, 1)}
	select {
	case s.updates <- req:
	case <-ctx.Done():
		return s.State(), ctx.Err()
	case <-s.quit:
		return s.State(), ErrClosed
	}
	return <-req.reply, nil
}

// Subscribe returns a channel that receives the current snapshot and then
// every new one. Slow readers only see the latest snapshot. The returned
// func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.State()

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Close stops the loop and closes every subscription.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.quit)
		<-s.stopped

		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		s.closed = true
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
	})
}

func (s *Store) loop() {
	defer close(s.stopped)
	ctx := context.Background()

	for {
		select {
		case req := <-s.updates:
			prev := s.snap.Load()
			next := *prev
			eff := req.action.reduce(&next)
			s.snap.Store(&next)

			if next.Auth.Token != prev.Auth.Token {
				s.backend.SetToken(next.Auth.Token)
			}
			s.runEffects(ctx, eff, next)
			s.publish(next)
			req.reply <- next
		case <-s.quit:
			return
		}
	}
}

func (s *Store) publish(st State) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
}

// runEffects writes local storage. Failures are logged, never surfaced.
func (s *Store) runEffects(ctx context.Context, eff effect, st State) {
	if eff&persistCart != 0 {
		s.saveCart(ctx, st.Cart.Items)
	}
	if eff&persistSession != 0 {
		s.saveSession(ctx, st.Auth)
	}
	if eff&clearSession != 0 {
		for _, key := range []string{storage.KeyToken, storage.KeyUser} {
			if err := s.local.RemoveItem(ctx, key); err != nil {
				s.log.WarnContext(ctx, "failed to clear session", "key", key, "error", err)
			}
		}
	}
}

func (s *Store) saveCart(ctx context.Context, items []cart.Item) {
	if items == nil {
		items = []cart.Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		s.log.WarnContext(ctx, "failed to encode cart", "error", err)
		return
	}
	if err := s.local.SetItem(ctx, storage.KeyCart, string(b)); err != nil {
		s.log.WarnContext(ctx, "failed to persist cart", "error", err)
	}
}

// loadCart reads the persisted cart. Absent or corrupt data yields an empty
// cart.
func (s *Store) loadCart(ctx context.Context) []cart.Item {
	raw, err := s.local.GetItem(ctx, storage.KeyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.WarnContext(ctx, "failed to read cart", "error", err)
		}
		return []cart.Item{}
	}

	var items []cart.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.WarnContext(ctx, "discarding corrupt cart", "error", err)
		return []cart.Item{}
	}
	for i, it := range items {
		if it.ID.IsZero() || it.Quantity < 1 || cart.Find(items[:i], it.ID) >= 0 {
			s.log.WarnContext(ctx, "discarding corrupt cart", "entry", i)
			return []cart.Item{}
		}
	}
	if items == nil {
		items = []cart.Item{}
	}
	return items
}

func (s *Store) saveSession(ctx context.Context, auth AuthState) {
	if auth.User == nil {
		return
	}
	b, err := json.Marshal(auth.User)
	if err != nil {
		s.log.WarnContext(ctx, "failed to encode user", "error", err)
		return
	}
	if err := s.local.SetItem(ctx, storage.KeyToken, auth.Token); err != nil {
		s.log.WarnContext(ctx, "failed to persist token", "error", err)
	}
	if err := s.local.SetItem(ctx, storage.KeyUser, string(b)); err != nil {
		s.log.WarnContext(ctx, "failed to persist user", "error", err)
	}
}

// storedSession reads the token and user written at login.
func (s *Store) storedSession(ctx context.Context) (api.Session, bool) {
	token, err := s.local.GetItem(ctx, storage.KeyToken)
	if err != nil || token == "" {
		return api.Session{}, false
	}
	raw, err := s.local.GetItem(ctx, storage.KeyUser)
	if err != nil {
		return api.Session{}, false
	}
	var u api.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.WarnContext(ctx, "discarding corrupt stored user", "error", err)
		return api.Session{}, false
	}
	return api.Session{Token: token, User: u}, true
}
