package rental

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Clark-Hu/moviestore/internal/domain"
	"github.com/Clark-Hu/moviestore/internal/repository"
)

type memState struct {
	nextRental  int64
	nextPayment int64
	users       map[int64]string
	movies      map[int64]domain.Movie
	rentals     map[int64]domain.Rental
	payments    map[int64]domain.Payment
}

func (st *memState) clone() *memState {
	out := &memState{
		nextRental:  st.nextRental,
		nextPayment: st.nextPayment,
		users:       make(map[int64]string, len(st.users)),
		movies:      make(map[int64]domain.Movie, len(st.movies)),
		rentals:     make(map[int64]domain.Rental, len(st.rentals)),
		payments:    make(map[int64]domain.Payment, len(st.payments)),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.movies {
		out.movies[k] = v
	}
	for k, v := range st.rentals {
		out.rentals[k] = v
	}
	for k, v := range st.payments {
		out.payments[k] = v
	}
	return out
}

// memStore is an in-memory Store. WithinTx works on a copy of the state and
// swaps it in only when fn succeeds.
type memStore struct {
	mu         *sync.Mutex
	state      *memState
	inTx       bool
	paymentErr error
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		mu: &sync.Mutex{},
		state: &memState{
			users:    map[int64]string{},
			movies:   map[int64]domain.Movie{},
			rentals:  map[int64]domain.Rental{},
			payments: map[int64]domain.Payment{},
		},
	}
}

func (s *memStore) addUser(id int64, name string) {
	s.state.users[id] = name
}

func (s *memStore) addMovie(id int64, title string) {
	s.state.movies[id] = domain.Movie{ID: id, Title: title}
}

func (s *memStore) rental(id int64) (domain.Rental, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.rentals[id]
	return r, ok
}

func (s *memStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.payments)
}

func (s *memStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) Rentals() RentalStore   { return memRentals{s} }
func (s *memStore) Payments() PaymentStore { return memPayments{s} }
func (s *memStore) Movies() MovieLookup    { return memMovies{s} }

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memStore{mu: s.mu, state: s.state.clone(), inTx: true, paymentErr: s.paymentErr}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

type memMovies struct{ s *memStore }

func (m memMovies) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	defer m.s.lock()()
	movie, ok := m.s.state.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	return movie, nil
}

type memRentals struct{ s *memStore }

func (m memRentals) GetByID(ctx context.Context, id int64) (domain.Rental, error) {
	defer m.s.lock()()
	r, ok := m.s.state.rentals[id]
	if !ok {
		return domain.Rental{}, repository.ErrNotFound
	}
	return r, nil
}

func (m memRentals) GetForUpdate(ctx context.Context, id int64) (domain.Rental, error) {
	return m.GetByID(ctx, id)
}

func (m memRentals) HasOpen(ctx context.Context, userID, movieID int64) (bool, error) {
	defer m.s.lock()()
	return m.hasOpen(userID, movieID), nil
}

func (m memRentals) hasOpen(userID, movieID int64) bool {
	for _, r := range m.s.state.rentals {
		if r.UserID == userID && r.MovieID == movieID && !r.Activated {
			return true
		}
	}
	return false
}

func (m memRentals) Create(ctx context.Context, userID, movieID int64, rentedAt time.Time) (domain.Rental, error) {
	defer m.s.lock()()
	if _, ok := m.s.state.movies[movieID]; !ok {
		return domain.Rental{}, repository.ErrNotFound
	}
	if m.hasOpen(userID, movieID) {
		return domain.Rental{}, repository.ErrDuplicate
	}
	m.s.state.nextRental++
	r := domain.Rental{
		ID:        m.s.state.nextRental,
		MovieID:   movieID,
		UserID:    userID,
		RentedAt:  rentedAt,
		UpdatedAt: rentedAt,
		Price:     1,
	}
	m.s.state.rentals[r.ID] = r
	return r, nil
}

func (m memRentals) UpdatePrice(ctx context.Context, id int64, price float64) (domain.Rental, error) {
	defer m.s.lock()()
	r, ok := m.s.state.rentals[id]
	if !ok {
		return domain.Rental{}, repository.ErrNotFound
	}
	if !r.Activated {
		r.Price = price
		m.s.state.rentals[id] = r
	}
	return r, nil
}

func (m memRentals) Settle(ctx context.Context, id int64, price float64) (domain.Rental, error) {
	defer m.s.lock()()
	r, ok := m.s.state.rentals[id]
	if !ok {
		return domain.Rental{}, repository.ErrNotFound
	}
	r.Price = price
	r.Activated = true
	m.s.state.rentals[id] = r
	return r, nil
}

func (m memRentals) Delete(ctx context.Context, id int64) error {
	defer m.s.lock()()
	if _, ok := m.s.state.rentals[id]; !ok {
		return repository.ErrNotFound
	}
	for pid, p := range m.s.state.payments {
		if p.Rental.ID == id {
			delete(m.s.state.payments, pid)
		}
	}
	delete(m.s.state.rentals, id)
	return nil
}

func (m memRentals) List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, error) {
	defer m.s.lock()()
	out := make([]domain.Rental, 0)
	for _, r := range m.s.state.rentals {
		if matches(m.s.state, r, filter.UserID, filter.MovieID, filter.UserName, filter.MovieTitle) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memPayments struct{ s *memStore }

func (m memPayments) Create(ctx context.Context, rental domain.Rental, amount float64) (domain.Payment, error) {
	defer m.s.lock()()
	if m.s.paymentErr != nil {
		return domain.Payment{}, m.s.paymentErr
	}
	for _, p := range m.s.state.payments {
		if p.Rental.ID == rental.ID {
			return domain.Payment{}, repository.ErrDuplicate
		}
	}
	m.s.state.nextPayment++
	p := domain.Payment{ID: m.s.state.nextPayment, Rental: rental, Amount: amount}
	m.s.state.payments[p.ID] = p
	return p, nil
}

func (m memPayments) List(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	defer m.s.lock()()
	out := make([]domain.Payment, 0)
	for _, p := range m.s.state.payments {
		r := m.s.state.rentals[p.Rental.ID]
		if matches(m.s.state, r, filter.UserID, filter.MovieID, filter.UserName, filter.MovieTitle) {
			p.Rental = r
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matches(st *memState, r domain.Rental, userID, movieID int64, userName, movieTitle string) bool {
	if userID != 0 && r.UserID != userID {
		return false
	}
	if movieID != 0 && r.MovieID != movieID {
		return false
	}
	if userName != "" && !strings.Contains(strings.ToLower(st.users[r.UserID]), strings.ToLower(userName)) {
		return false
	}
	if movieTitle != "" && !strings.Contains(strings.ToLower(st.movies[r.MovieID].Title), strings.ToLower(movieTitle)) {
		return false
	}
	return true
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
