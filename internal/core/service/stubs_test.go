package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory store backing every repository port
// ---------------------------------------------------------------------------

type memStore struct {
	mu     sync.Mutex
	seq    int
	users  map[string]*domain.User
	groups map[string]*domain.Group
	roster map[string]domain.Membership // key: group|user
	inv    map[string]*domain.Invite
	cats   map[string]*domain.Category
	exps   map[string]*domain.Expense

	takenCodes    map[string]bool
	expireErr     error // returned by ExpireStale when set
	categoriesErr error // returned by CreateMany when set
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*domain.User),
		groups:     make(map[string]*domain.Group),
		roster:     make(map[string]domain.Membership),
		inv:        make(map[string]*domain.Invite),
		cats:       make(map[string]*domain.Category),
		exps:       make(map[string]*domain.Expense),
		takenCodes: make(map[string]bool),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func rosterKey(groupID, userID string) string { return groupID + "|" + userID }

func (s *memStore) repos() Repositories {
	return Repositories{
		Users:       memUsers{s},
		Groups:      memGroups{s},
		Memberships: memMemberships{s},
		Invites:     memInvites{s},
		Categories:  memCategories{s},
		Expenses:    memExpenses{s},
	}
}

// addUser seeds an account and returns its id.
func (s *memStore) addUser(name, email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID("u")
	s.users[id] = &domain.User{ID: id, Name: name, Email: domain.NormalizeEmail(email), CreatedAt: time.Now().UTC()}
	return id
}

func (s *memStore) rosterOf(groupID string) []domain.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Membership
	for _, m := range s.roster {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out
}

// --- users ---

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, domain.ErrEmailExists
		}
	}
	c := *u
	c.ID = r.s.nextID("u")
	r.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) FindByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]*domain.User)
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			c := *u
			out[id] = &c
		}
	}
	return out, nil
}

func (r memUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

// --- groups ---

type memGroups struct{ s *memStore }

func (r memGroups) Create(_ context.Context, g *domain.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.takenCodes[g.Code] {
		return ports.ErrDuplicateKey
	}
	for _, existing := range r.s.groups {
		if existing.Code == g.Code {
			return ports.ErrDuplicateKey
		}
	}
	r.s.seq++
	g.ID = fmt.Sprintf("%024d", r.s.seq)
	c := *g
	r.s.groups[g.ID] = &c
	return nil
}

func (r memGroups) FindByID(_ context.Context, id string) (*domain.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	c := *g
	return &c, nil
}

func (r memGroups) FindByCode(_ context.Context, code string) (*domain.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if strings.EqualFold(g.Code, code) {
			c := *g
			return &c, nil
		}
	}
	return nil, domain.ErrGroupNotFound
}

func (r memGroups) FindByIDs(_ context.Context, ids []string) (map[string]*domain.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]*domain.Group)
	for _, id := range ids {
		if g, ok := r.s.groups[id]; ok {
			c := *g
			out[id] = &c
		}
	}
	return out, nil
}

func (r memGroups) Touch(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if g, ok := r.s.groups[id]; ok {
		g.UpdatedAt = at
	}
	return nil
}

func (r memGroups) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.groups, id)
	return nil
}

// --- memberships ---

type memMemberships struct{ s *memStore }

func (r memMemberships) Add(_ context.Context, m domain.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := rosterKey(m.GroupID, m.UserID)
	if _, ok := r.s.roster[k]; ok {
		return domain.ErrAlreadyMember
	}
	r.s.roster[k] = m
	return nil
}

func (r memMemberships) Remove(_ context.Context, groupID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := rosterKey(groupID, userID)
	if _, ok := r.s.roster[k]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(r.s.roster, k)
	return nil
}

func (r memMemberships) UpdateRole(_ context.Context, groupID, userID string, role domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := rosterKey(groupID, userID)
	m, ok := r.s.roster[k]
	if !ok {
		return domain.ErrMemberNotFound
	}
	m.Role = role
	r.s.roster[k] = m
	return nil
}

func (r memMemberships) Find(_ context.Context, groupID, userID string) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.roster[rosterKey(groupID, userID)]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return &m, nil
}

func (r memMemberships) ListByGroup(_ context.Context, groupID string) ([]domain.Membership, error) {
	return r.s.rosterOf(groupID), nil
}

func (r memMemberships) ListByUser(_ context.Context, userID string) ([]domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Membership
	for _, m := range r.s.roster {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out, nil
}

func (r memMemberships) DeleteByGroup(_ context.Context, groupID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, m := range r.s.roster {
		if m.GroupID == groupID {
			delete(r.s.roster, k)
		}
	}
	return nil
}

func (r memMemberships) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, m := range r.s.roster {
		if m.UserID == userID {
			delete(r.s.roster, k)
		}
	}
	return nil
}

// --- invites ---

type memInvites struct{ s *memStore }

func (r memInvites) UpsertPending(_ context.Context, inv *domain.Invite) (*domain.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.inv {
		if existing.GroupID == inv.GroupID && existing.Email == inv.Email && existing.Status == domain.InvitePending {
			existing.Token = inv.Token
			existing.Role = inv.Role
			existing.InvitedBy = inv.InvitedBy
			existing.CreatedAt = inv.CreatedAt
			existing.ExpiresAt = inv.ExpiresAt
			c := *existing
			return &c, nil
		}
	}
	c := *inv
	c.ID = r.s.nextID("i")
	r.s.inv[c.ID] = &c
	out := c
	return &out, nil
}

func (r memInvites) FindByID(_ context.Context, id string) (*domain.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.inv[id]
	if !ok {
		return nil, domain.ErrInviteNotFound
	}
	c := *inv
	return &c, nil
}

func (r memInvites) FindByToken(_ context.Context, token string) (*domain.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.inv {
		if inv.Token == token {
			c := *inv
			return &c, nil
		}
	}
	return nil, domain.ErrInviteNotFound
}

func (r memInvites) ListByGroup(_ context.Context, groupID string) ([]*domain.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Invite
	for _, inv := range r.s.inv {
		if inv.GroupID == groupID {
			c := *inv
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memInvites) Transition(_ context.Context, id string, from, to domain.InviteStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.inv[id]
	if !ok || inv.Status != from {
		return domain.ErrInviteProcessed
	}
	inv.Status = to
	return nil
}

func (r memInvites) ExpireStale(_ context.Context, groupID string, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.expireErr != nil {
		return 0, r.s.expireErr
	}
	var n int64
	for _, inv := range r.s.inv {
		if groupID != "" && inv.GroupID != groupID {
			continue
		}
		if inv.IsExpired(now) {
			inv.Status = domain.InviteExpired
			n++
		}
	}
	return n, nil
}

func (r memInvites) DeleteByGroup(_ context.Context, groupID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, inv := range r.s.inv {
		if inv.GroupID == groupID {
			delete(r.s.inv, id)
		}
	}
	return nil
}

// --- categories ---

type memCategories struct{ s *memStore }

func (r memCategories) CreateMany(_ context.Context, groupID string, names []string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.categoriesErr != nil {
		return r.s.categoriesErr
	}
	for _, name := range names {
		id := r.s.nextID("c")
		r.s.cats[id] = &domain.Category{ID: id, GroupID: groupID, Name: name, CreatedAt: at}
	}
	return nil
}

func (r memCategories) FindByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cats[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	out := *c
	return &out, nil
}

func (r memCategories) ListByGroup(_ context.Context, groupID string) ([]domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Category
	for _, c := range r.s.cats {
		if c.GroupID == groupID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCategories) DeleteByGroup(_ context.Context, groupID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.cats {
		if c.GroupID == groupID {
			delete(r.s.cats, id)
		}
	}
	return nil
}

// categoryID returns the id of the named category in a group.
func (s *memStore) categoryID(groupID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cats {
		if c.GroupID == groupID && c.Name == name {
			return c.ID
		}
	}
	return ""
}

// --- expenses ---

type memExpenses struct{ s *memStore }

func (r memExpenses) Create(_ context.Context, e *domain.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.nextID("e")
	c := *e
	r.s.exps[e.ID] = &c
	return nil
}

func (r memExpenses) FindByID(_ context.Context, id string) (*domain.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.exps[id]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	c := *e
	return &c, nil
}

func (r memExpenses) Update(_ context.Context, e *domain.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.exps[e.ID]; !ok {
		return domain.ErrExpenseNotFound
	}
	c := *e
	r.s.exps[e.ID] = &c
	return nil
}

func (r memExpenses) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.exps[id]; !ok {
		return domain.ErrExpenseNotFound
	}
	delete(r.s.exps, id)
	return nil
}

func (r memExpenses) List(_ context.Context, f ports.ExpenseFilter) ([]*domain.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Expense
	for _, e := range r.s.exps {
		if e.GroupID != f.GroupID {
			continue
		}
		if f.CategoryID != "" && e.CategoryID != f.CategoryID {
			continue
		}
		if !f.DateFrom.IsZero() && e.Date.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && e.Date.After(f.DateTo) {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r memExpenses) DeleteByGroup(_ context.Context, groupID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.exps {
		if e.GroupID == groupID {
			delete(r.s.exps, id)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Locker and generators
// ---------------------------------------------------------------------------

// mutexLocker serializes all groups on one mutex, which is enough for tests.
type mutexLocker struct{ mu sync.Mutex }

func (l *mutexLocker) Lock(_ context.Context, _ string) (func(), error) {
	l.mu.Lock()
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, nil
}

func sequence(prefix string) ports.TokenGenerator {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n), nil
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
