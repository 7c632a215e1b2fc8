package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/events"
	"github.com/sirupsen/logrus"
)

const defaultRefetchTimeout = 10 * time.Second

// IdentitySource recomputes the current identity. A nil identity means guest.
type IdentitySource interface {
	Resolve(ctx context.Context) *domain.Identity
}

var _ domain.CartStore = (*cartStore)(nil)

type cartStore struct {
	identity       IdentitySource
	remote         domain.CartAPI
	guest          *GuestCartRepository
	bus            *events.Bus
	log            *logrus.Logger
	refetchTimeout time.Duration

	mu         sync.Mutex
	cart       []domain.CartLine
	inflight   int
	loadErr    error
	generation uint64
	closed     bool

	refetches   sync.WaitGroup
	unsubscribe func()
}

// NewCartStore builds the cart view. Publishing events.CartInvalidated on bus
// triggers a background refetch; every state change is published as events.CartChanged.
func NewCartStore(identity IdentitySource, remote domain.CartAPI, guest *GuestCartRepository, bus *events.Bus, refetchTimeout time.Duration, logger *logrus.Logger) domain.CartStore {
	if refetchTimeout <= 0 {
		refetchTimeout = defaultRefetchTimeout
	}
	s := &cartStore{
		identity:       identity,
		remote:         remote,
		guest:          guest,
		bus:            bus,
		log:            logger,
		refetchTimeout: refetchTimeout,
		cart:           []domain.CartLine{},
	}
	s.unsubscribe = bus.Subscribe(events.CartInvalidated, func(events.Event) { s.refetch() })
	return s
}

// Load replaces the cart with the authoritative sequence. When the fetch fails
// the cart falls back to empty, LoadError reports the failure and the error is returned.
func (s *cartStore) Load(ctx context.Context) error {
	s.beginLoad()
	defer s.endLoad()

	lines, err := s.fetch(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.cart = []domain.CartLine{}
		s.loadErr = err
	} else {
		s.cart = lines
		s.loadErr = nil
	}
	snapshot := cloneLines(s.cart)
	s.mu.Unlock()

	s.bus.Publish(events.CartChanged, snapshot)
	if err != nil {
		s.log.Errorf("CartStore: Load failed, showing empty cart: %v", err)
		return fmt.Errorf("failed to load cart: %w", err)
	}
	s.log.Infof("CartStore: Loaded %d lines", len(snapshot))
	return nil
}

// AddItem adds line.Quantity units (1 when unset) of the product. An existing
// line is incremented; quantities never exceed the known stock. Only the units
// that fit are sent to the server, and a line already at stock is ErrOutOfStock.
func (s *cartStore) AddItem(ctx context.Context, line domain.CartLine) error {
	if line.ID == "" {
		return errors.New("cart line id cannot be empty")
	}
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	if line.Stock < 1 {
		return fmt.Errorf("%w: %s", domain.ErrOutOfStock, line.ID)
	}
	if line.Quantity > line.Stock {
		line.Quantity = line.Stock
	}
	line = normalizeLine(line)

	var added int
	apply := func(lines []domain.CartLine) ([]domain.CartLine, error) {
		next, n := addLine(lines, line)
		if n < 1 {
			return nil, fmt.Errorf("%w: %s already holds all %d in stock", domain.ErrOutOfStock, line.ID, line.Stock)
		}
		added = n
		return next, nil
	}
	remote := func(ctx context.Context) error {
		return s.remote.AddItem(ctx, line.ID, added)
	}
	if err := s.mutate(ctx, "add", apply, remote); err != nil {
		return fmt.Errorf("failed to add item %s: %w", line.ID, err)
	}
	return nil
}

// UpdateItem sets the quantity of an existing line. Quantities outside
// [1, stock] are rejected and leave the cart untouched.
func (s *cartStore) UpdateItem(ctx context.Context, id string, quantity int) error {
	apply := func(lines []domain.CartLine) ([]domain.CartLine, error) {
		idx := indexOfLine(lines, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrLineNotFound, id)
		}
		if quantity < 1 || quantity > lines[idx].Stock {
			return nil, fmt.Errorf("%w: %d not within [1, %d] for %s", domain.ErrQuantityOutOfRange, quantity, lines[idx].Stock, id)
		}
		lines[idx].Quantity = quantity
		return lines, nil
	}
	remote := func(ctx context.Context) error {
		return s.remote.UpdateItem(ctx, id, quantity)
	}
	if err := s.mutate(ctx, "update", apply, remote); err != nil {
		return fmt.Errorf("failed to update item %s: %w", id, err)
	}
	return nil
}

// RemoveItem drops the line. Removing an absent line is not an error.
func (s *cartStore) RemoveItem(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("cart line id cannot be empty")
	}
	apply := func(lines []domain.CartLine) ([]domain.CartLine, error) {
		out := lines[:0]
		for _, l := range lines {
			if l.ID != id {
				out = append(out, l)
			}
		}
		return out, nil
	}
	remote := func(ctx context.Context) error {
		return s.remote.RemoveItem(ctx, id)
	}
	if err := s.mutate(ctx, "remove", apply, remote); err != nil {
		return fmt.Errorf("failed to remove item %s: %w", id, err)
	}
	return nil
}

// mutate applies a change optimistically and then confirms it with the backing store.
//
// Authenticated: apply to memory, publish, call remote; on success invalidate so
// a refetch reconciles with the server. A remote failure keeps the optimistic state.
//
// Guest: the guest cart in storage is the base, so lines written before the first
// Load survive. The result is mirrored into memory, persisted, then published.
func (s *cartStore) mutate(ctx context.Context, op string, apply func([]domain.CartLine) ([]domain.CartLine, error), remote func(context.Context) error) error {
	if identity := s.identity.Resolve(ctx); identity != nil {
		s.mu.Lock()
		next, err := apply(cloneLines(s.cart))
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.cart = next
		s.generation++
		snapshot := cloneLines(next)
		s.mu.Unlock()

		s.bus.Publish(events.CartChanged, snapshot)
		if err := remote(ctx); err != nil {
			s.log.Warnf("CartStore: Remote %s failed for user %s, keeping optimistic state: %v", op, identity.ID, err)
			return err
		}
		s.log.Infof("CartStore: Remote %s confirmed for user %s", op, identity.ID)
		s.Invalidate()
		return nil
	}

	stored, err := s.guest.Read(ctx)
	if err != nil {
		return err
	}
	next, err := apply(stored)
	if err != nil {
		return err
	}
	next = NormalizeLines(next)

	s.mu.Lock()
	s.cart = next
	s.generation++
	snapshot := cloneLines(next)
	s.mu.Unlock()

	writeErr := s.guest.Write(ctx, snapshot)
	s.bus.Publish(events.CartChanged, snapshot)
	if writeErr != nil {
		s.log.Errorf("CartStore: Guest %s not persisted: %v", op, writeErr)
		return writeErr
	}
	s.log.Infof("CartStore: Guest %s persisted (%d lines)", op, len(snapshot))
	return nil
}

func (s *cartStore) Cart() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.cart)
}

func (s *cartStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

func (s *cartStore) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *cartStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, l := range s.cart {
		count += l.Quantity
	}
	return count
}

func (s *cartStore) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, l := range s.cart {
		sub := l.Price * float64(l.Quantity)
		if math.IsNaN(sub) || math.IsInf(sub, 0) {
			continue
		}
		total += sub
	}
	return total
}

func (s *cartStore) Invalidate() {
	s.bus.Publish(events.CartInvalidated, nil)
}

func (s *cartStore) Wait() {
	s.refetches.Wait()
}

// Close detaches the store from the bus. Results of refetches still in flight are discarded.
func (s *cartStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.unsubscribe()
	s.refetches.Wait()
}

func (s *cartStore) Subscribe(handler func([]domain.CartLine)) func() {
	return s.bus.Subscribe(events.CartChanged, func(e events.Event) {
		lines, _ := e.Payload.([]domain.CartLine)
		handler(lines)
	})
}

// refetch reloads in the background. The result is dropped when a mutation
// started in the meantime, and a failure keeps the current view.
func (s *cartStore) refetch() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	generation := s.generation
	s.refetches.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.refetches.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.refetchTimeout)
		defer cancel()

		s.beginLoad()
		defer s.endLoad()

		lines, err := s.fetch(ctx)

		s.mu.Lock()
		if s.closed || s.generation != generation {
			s.mu.Unlock()
			s.log.Debugf("CartStore: Discarding stale refetch result")
			return
		}
		if err != nil {
			s.loadErr = err
			s.mu.Unlock()
			s.log.Warnf("CartStore: Background refetch failed, keeping current cart: %v", err)
			return
		}
		s.cart = lines
		s.loadErr = nil
		snapshot := cloneLines(lines)
		s.mu.Unlock()

		s.bus.Publish(events.CartChanged, snapshot)
	}()
}

func (s *cartStore) fetch(ctx context.Context) ([]domain.CartLine, error) {
	if identity := s.identity.Resolve(ctx); identity != nil {
		records, err := s.remote.FetchCart(ctx)
		if err != nil {
			return nil, err
		}
		return NormalizeRemoteCart(records), nil
	}
	return s.guest.Read(ctx)
}

func (s *cartStore) beginLoad() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *cartStore) endLoad() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// addLine increments an existing line or appends a new one, clamped to stock,
// and reports how many units were actually added. Catalog fields of the
// incoming line refresh the existing ones. lines is left untouched when
// nothing fits.
func addLine(lines []domain.CartLine, line domain.CartLine) ([]domain.CartLine, int) {
	idx := indexOfLine(lines, line.ID)
	if idx < 0 {
		return append(lines, line), line.Quantity
	}
	existing := lines[idx]
	before := existing.Quantity
	existing.Quantity += line.Quantity
	existing.Stock = line.Stock
	existing.Price = line.Price
	if line.Name != UnnamedProduct {
		existing.Name = line.Name
	}
	if line.Image != "" {
		existing.Image = line.Image
	}
	if existing.Quantity > existing.Stock {
		existing.Quantity = existing.Stock
	}
	added := existing.Quantity - before
	if added < 1 {
		return lines, 0
	}
	lines[idx] = existing
	return lines, added
}

func indexOfLine(lines []domain.CartLine, id string) int {
	for i, l := range lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}
