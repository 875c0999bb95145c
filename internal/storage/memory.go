package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// MemoryStore is an in-memory records.Store used by tests and the memory
// backend. All methods are safe for concurrent use.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]core.User
	categories map[uuid.UUID]core.Category
	expenses   map[uuid.UUID]core.Expense
	income     map[uuid.UUID]core.Income
	recurring  map[uuid.UUID]core.RecurringExpense
	large      map[uuid.UUID]core.LargeExpense
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      map[uuid.UUID]core.User{},
		categories: map[uuid.UUID]core.Category{},
		expenses:   map[uuid.UUID]core.Expense{},
		income:     map[uuid.UUID]core.Income{},
		recurring:  map[uuid.UUID]core.RecurringExpense{},
		large:      map[uuid.UUID]core.LargeExpense{},
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.users, id)
	for eid, e := range s.expenses {
		if e.UserID == id {
			delete(s.expenses, eid)
		}
	}
	for iid, i := range s.income {
		if i.UserID == id {
			delete(s.income, iid)
		}
	}
	for rid, re := range s.recurring {
		if re.UserID == id {
			delete(s.recurring, rid)
		}
	}
	for lid, le := range s.large {
		if le.UserID == id {
			delete(s.large, lid)
		}
	}
	return nil
}

func (s *MemoryStore) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *MemoryStore) GetCategory(_ context.Context, id uuid.UUID) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetCategoryByName(_ context.Context, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return core.ErrNotFound
	}
	s.categories[c.ID] = c
	return nil
}

func (s *MemoryStore) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	for eid, e := range s.expenses {
		if e.CategoryID == id {
			delete(s.expenses, eid)
		}
	}
	for rid, re := range s.recurring {
		if re.CategoryID == id {
			delete(s.recurring, rid)
		}
	}
	for lid, le := range s.large {
		if le.CategoryID == id {
			delete(s.large, lid)
		}
	}
	return nil
}

func (s *MemoryStore) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.expenses[e.ID] = e
	return e, nil
}

func (s *MemoryStore) GetExpense(_ context.Context, id uuid.UUID) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) ListExpensesByMonth(_ context.Context, year int, month time.Month) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.CreatedAt.Year() == year && e.CreatedAt.Month() == month {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListExpensesByYear(_ context.Context, year int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.CreatedAt.Year() == year {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteExpense(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *MemoryStore) HasInstallmentForMonth(_ context.Context, definitionID uuid.UUID, year int, month time.Month) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.SourceDefinitionID != nil && *e.SourceDefinitionID == definitionID &&
			e.CreatedAt.Year() == year && e.CreatedAt.Month() == month {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CountInstallments(_ context.Context, definitionID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.expenses {
		if e.SourceDefinitionID != nil && *e.SourceDefinitionID == definitionID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) DeleteBySourceDefinition(_ context.Context, definitionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.expenses {
		if e.SourceDefinitionID != nil && *e.SourceDefinitionID == definitionID {
			delete(s.expenses, id)
		}
	}
	return nil
}

func (s *MemoryStore) CreateIncome(_ context.Context, i core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	s.income[i.ID] = i
	return i, nil
}

func (s *MemoryStore) ListIncomeByMonth(_ context.Context, year int, month time.Month) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Income
	for _, i := range s.income {
		if i.CreatedAt.Year() == year && i.CreatedAt.Month() == month {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) LatestIncomePerUser(_ context.Context) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := map[uuid.UUID]core.Income{}
	for _, i := range s.income {
		cur, ok := latest[i.UserID]
		if !ok || i.CreatedAt.After(cur.CreatedAt) {
			latest[i.UserID] = i
		}
	}
	out := make([]core.Income, 0, len(latest))
	for _, i := range latest {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out, nil
}

func (s *MemoryStore) DeleteIncome(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.income[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.income, id)
	return nil
}

func (s *MemoryStore) CreateRecurring(_ context.Context, re core.RecurringExpense) (core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if re.ID == uuid.Nil {
		re.ID = uuid.New()
	}
	now := time.Now().UTC()
	if re.CreatedAt.IsZero() {
		re.CreatedAt = now
	}
	re.UpdatedAt = now
	s.recurring[re.ID] = re
	return re, nil
}

func (s *MemoryStore) GetRecurring(_ context.Context, id uuid.UUID) (core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	re, ok := s.recurring[id]
	if !ok {
		return core.RecurringExpense{}, core.ErrNotFound
	}
	return re, nil
}

func (s *MemoryStore) ListRecurring(_ context.Context) ([]core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedRecurring(s.recurring, func(core.RecurringExpense) bool { return true }), nil
}

func (s *MemoryStore) ListActiveRecurring(_ context.Context) ([]core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedRecurring(s.recurring, func(re core.RecurringExpense) bool { return re.IsActive }), nil
}

func sortedRecurring(m map[uuid.UUID]core.RecurringExpense, keep func(core.RecurringExpense) bool) []core.RecurringExpense {
	var out []core.RecurringExpense
	for _, re := range m {
		if keep(re) {
			out = append(out, re)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfMonth != out[j].DayOfMonth {
			return out[i].DayOfMonth < out[j].DayOfMonth
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) UpdateRecurring(_ context.Context, re core.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.recurring[re.ID]
	if !ok {
		return core.ErrNotFound
	}
	re.CreatedAt = cur.CreatedAt
	re.LastGeneratedAt = cur.LastGeneratedAt
	re.UpdatedAt = time.Now().UTC()
	s.recurring[re.ID] = re
	return nil
}

func (s *MemoryStore) MarkRecurringGenerated(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	re, ok := s.recurring[id]
	if !ok {
		return core.ErrNotFound
	}
	re.LastGeneratedAt = &at
	re.UpdatedAt = time.Now().UTC()
	s.recurring[id] = re
	return nil
}

func (s *MemoryStore) DeleteRecurring(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.recurring, id)
	return nil
}

func (s *MemoryStore) CreateLarge(_ context.Context, le core.LargeExpense) (core.LargeExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if le.ID == uuid.Nil {
		le.ID = uuid.New()
	}
	now := time.Now().UTC()
	if le.CreatedAt.IsZero() {
		le.CreatedAt = now
	}
	le.UpdatedAt = now
	s.large[le.ID] = le
	return le, nil
}

func (s *MemoryStore) GetLarge(_ context.Context, id uuid.UUID) (core.LargeExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	le, ok := s.large[id]
	if !ok {
		return core.LargeExpense{}, core.ErrNotFound
	}
	return le, nil
}

func (s *MemoryStore) ListLarge(_ context.Context) ([]core.LargeExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedLarge(s.large, func(core.LargeExpense) bool { return true }), nil
}

func (s *MemoryStore) ListActiveLarge(_ context.Context) ([]core.LargeExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedLarge(s.large, func(le core.LargeExpense) bool { return le.IsActive }), nil
}

func sortedLarge(m map[uuid.UUID]core.LargeExpense, keep func(core.LargeExpense) bool) []core.LargeExpense {
	var out []core.LargeExpense
	for _, le := range m {
		if keep(le) {
			out = append(out, le)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfMonth != out[j].DayOfMonth {
			return out[i].DayOfMonth < out[j].DayOfMonth
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) UpdateLarge(_ context.Context, le core.LargeExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.large[le.ID]
	if !ok {
		return core.ErrNotFound
	}
	le.CreatedAt = cur.CreatedAt
	le.UpdatedAt = time.Now().UTC()
	s.large[le.ID] = le
	return nil
}

func (s *MemoryStore) DeactivateLarge(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	le, ok := s.large[id]
	if !ok {
		return core.ErrNotFound
	}
	le.IsActive = false
	le.UpdatedAt = time.Now().UTC()
	s.large[id] = le
	return nil
}

func (s *MemoryStore) DeleteLarge(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.large[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.large, id)
	return nil
}
