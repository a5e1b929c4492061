package cart

import (
	"errors"
	"fmt"
	"sync"

	"bambite_gateway/internal/domain"
)

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

type Snapshot struct {
	Items     []domain.CartLine `json:"items"`
	ItemCount int               `json:"itemCount"`
	Subtotal  float64           `json:"subtotal"`
	IsOpen    bool              `json:"isOpen"`
}

// Store is an in-memory cart. Line order is insertion order and no product
// appears on two lines.
type Store struct {
	mu        sync.RWMutex
	lines     []domain.CartLine
	open      bool
	nextSub   int
	listeners map[int]func(Snapshot)
}

func NewStore() *Store {
	return &Store{listeners: make(map[int]func(Snapshot))}
}

// AddItem adds one unit of p and opens the drawer.
func (s *Store) AddItem(p domain.Product) {
	s.update(func() error {
		s.addLocked(p)
		s.open = true
		return nil
	})
}

// AddItems adds one unit of each product and leaves the drawer closed.
func (s *Store) AddItems(products ...domain.Product) {
	s.update(func() error {
		for _, p := range products {
			s.addLocked(p)
		}
		s.open = false
		return nil
	})
}

func (s *Store) RemoveItem(productID string) error {
	return s.update(func() error {
		i := s.indexLocked(productID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, productID)
		}
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		return nil
	})
}

// SetQuantity sets a line's quantity. Zero and negative values are rejected;
// removal goes through RemoveItem.
func (s *Store) SetQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return s.update(func() error {
		i := s.indexLocked(productID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, productID)
		}
		s.lines[i].Quantity = quantity
		return nil
	})
}

func (s *Store) Clear() {
	s.update(func() error {
		s.lines = nil
		return nil
	})
}

func (s *Store) OpenCart() {
	s.update(func() error { s.open = true; return nil })
}

func (s *Store) CloseCart() {
	s.update(func() error { s.open = false; return nil })
}

func (s *Store) ToggleCart() {
	s.update(func() error { s.open = !s.open; return nil })
}

// ItemCount is the sum of all line quantities.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked()
}

func (s *Store) Items() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsLocked()
}

func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every change and returns its remover.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies fn under the write lock and notifies listeners after the
// lock is released. Listeners are not called when fn fails.
func (s *Store) update(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.mu.Unlock()

	for _, l := range fns {
		l(snap)
	}
	return nil
}

func (s *Store) addLocked(p domain.Product) {
	if i := s.indexLocked(p.ID); i >= 0 {
		s.lines[i].Quantity++
		return
	}
	s.lines = append(s.lines, domain.CartLine{
		ProductID: p.ID,
		Title:     p.Title,
		TitleThai: p.TitleThai,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  1,
	})
}

func (s *Store) indexLocked(productID string) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) countLocked() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) itemsLocked() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) snapshotLocked() Snapshot {
	subtotal := 0.0
	for _, l := range s.lines {
		subtotal += l.Price * float64(l.Quantity)
	}
	return Snapshot{
		Items:     s.itemsLocked(),
		ItemCount: s.countLocked(),
		Subtotal:  subtotal,
		IsOpen:    s.open,
	}
}
