package web

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/adapter"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

type memTxManager struct {
	mu sync.Mutex
}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, struct{}{})
}

type memAgentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Agent
}

func newMemAgentRepo() *memAgentRepo {
	return &memAgentRepo{store: make(map[string]*model.Agent)}
}

func (m *memAgentRepo) Save(ctx context.Context, tx repository.Tx, a *model.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *memAgentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAgentRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.store {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrAgentNotFound
}

func (m *memAgentRepo) DeductBalance(ctx context.Context, tx repository.Tx, agentID string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[agentID]
	if !ok {
		return 0, domain.ErrAgentNotFound
	}
	if a.CreditBalance < amount {
		return 0, &domain.InsufficientCreditsError{Required: amount, Available: a.CreditBalance}
	}
	a.CreditBalance -= amount
	return a.CreditBalance, nil
}

func (m *memAgentRepo) CreditBalance(ctx context.Context, tx repository.Tx, agentID string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[agentID]
	if !ok {
		return 0, domain.ErrAgentNotFound
	}
	a.CreditBalance += amount
	return a.CreditBalance, nil
}

func (m *memAgentRepo) AddAIUsage(ctx context.Context, tx repository.Tx, agentID string, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[agentID]
	if !ok {
		return domain.ErrAgentNotFound
	}
	a.AICreditsUsed += amount
	return nil
}

func (m *memAgentRepo) Lock(ctx context.Context, tx repository.Tx, agentID string) error {
	return nil
}

type memSiteRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Site
}

func newMemSiteRepo() *memSiteRepo {
	return &memSiteRepo{store: make(map[string]*model.Site)}
}

func (m *memSiteRepo) Save(ctx context.Context, tx repository.Tx, s *model.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *memSiteRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrSiteNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSiteRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Site, error) {
	return m.FindByID(ctx, tx, id)
}

func (m *memSiteRepo) ListByAgent(ctx context.Context, tx repository.Tx, agentID string) ([]*model.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Site
	for _, s := range m.store {
		if s.AgentID == agentID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memSiteRepo) ListPausedByAgentForUpdate(ctx context.Context, tx repository.Tx, agentID string) ([]*model.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Site
	for _, s := range m.store {
		if s.AgentID == agentID && s.Status == model.SiteStatusPaused {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSiteRepo) CountLiveByAgent(ctx context.Context, tx repository.Tx, agentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.store {
		if s.AgentID == agentID && s.Status == model.SiteStatusLive {
			n++
		}
	}
	return n, nil
}

func (m *memSiteRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SiteStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[model.SiteStatus]int)
	for _, s := range m.store {
		out[s.Status]++
	}
	return out, nil
}

func (m *memSiteRepo) ListDueLive(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Site
	for _, s := range m.store {
		if s.HostingDue(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSiteRepo) MarkCharged(ctx context.Context, tx repository.Tx, siteID string, prev *time.Time, chargedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[siteID]
	if !ok {
		return domain.ErrSiteNotFound
	}
	if !timePtrEqual(s.LastHostingChargedAt, prev) {
		return domain.ErrTxConflict
	}
	ts := chargedAt
	s.LastHostingChargedAt = &ts
	s.UpdatedAt = chargedAt
	return nil
}

func (m *memSiteRepo) UpdateStatus(ctx context.Context, tx repository.Tx, siteID string, status model.SiteStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[siteID]
	if !ok {
		return domain.ErrSiteNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

type memCodeRepo struct {
	mu    sync.RWMutex
	store map[string]*model.RedemptionCode
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{store: make(map[string]*model.RedemptionCode)}
}

func (m *memCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.RedemptionCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[c.Code]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *c
	m.store[c.Code] = &cp
	return nil
}

func (m *memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[code]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error) {
	return m.FindByCode(ctx, tx, code)
}

func (m *memCodeRepo) MarkRedeemed(ctx context.Context, tx repository.Tx, codeID, agentID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.store {
		if c.ID != codeID {
			continue
		}
		if c.IsRedeemed {
			return domain.ErrCodeAlreadyRedeemed
		}
		ts := at
		c.IsRedeemed = true
		c.RedeemedBy = &agentID
		c.RedeemedAt = &ts
		return nil
	}
	return domain.ErrCodeNotFound
}

type memPackageRepo struct {
	mu    sync.RWMutex
	store map[string]*model.CreditPackage
}

func newMemPackageRepo() *memPackageRepo {
	return &memPackageRepo{store: make(map[string]*model.CreditPackage)}
}

func (m *memPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.CreditPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CreditPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPackageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.CreditPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.CreditPackage
	for _, p := range m.store {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memEntryRepo struct {
	mu      sync.RWMutex
	entries []*model.CreditEntry
}

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{}
}

func (m *memEntryRepo) Append(ctx context.Context, tx repository.Tx, e *model.CreditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memEntryRepo) ListByAgent(ctx context.Context, tx repository.Tx, agentID string, limit int) ([]*model.CreditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.CreditEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].AgentID == agentID {
			cp := *m.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// stubEnhancer returns canned copy or a configured error.
type stubEnhancer struct {
	err error
}

func (s *stubEnhancer) Enhance(ctx context.Context, siteName, brief string) (adapter.SiteCopy, error) {
	if s.err != nil {
		return adapter.SiteCopy{}, s.err
	}
	return adapter.SiteCopy{Headline: siteName, Tagline: brief, About: "about"}, nil
}

func (s *stubEnhancer) Name() string { return "stub" }

// stubLimiter allows a fixed number of calls per key.
type stubLimiter struct {
	mu    sync.Mutex
	limit int
	seen  map[string]int
}

func newStubLimiter(limit int) *stubLimiter {
	return &stubLimiter{limit: limit, seen: make(map[string]int)}
}

func (s *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[key]++
	return s.seen[key] <= s.limit, nil
}

// stubLocker hands the lock out freely or refuses, depending on held.
type stubLocker struct {
	mu   sync.Mutex
	held bool
}

func (s *stubLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held {
		return "", domain.ErrOperationFailed
	}
	s.held = true
	return "token", nil
}

func (s *stubLocker) Unlock(ctx context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held = false
	return nil
}
