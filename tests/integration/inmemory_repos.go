package integration

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is the shared state behind every in-memory repository.
// txMu serializes units of work the way row locks would; dataMu guards the
// maps for individual reads and writes.
type memStore struct {
	txMu   sync.Mutex
	dataMu sync.RWMutex

	members  map[uuid.UUID]domain.Member
	accounts map[uuid.UUID]domain.Account
	cards    map[uuid.UUID]domain.CreditCard
	txns     []domain.Transaction
	audits   []domain.AuditLog
}

func newMemStore() *memStore {
	return &memStore{
		members:  make(map[uuid.UUID]domain.Member),
		accounts: make(map[uuid.UUID]domain.Account),
		cards:    make(map[uuid.UUID]domain.CreditCard),
	}
}

// snapshot covers the state written inside units of work. Members and audit
// entries are written outside them and are never rolled back.
type snapshot struct {
	accounts map[uuid.UUID]domain.Account
	cards    map[uuid.UUID]domain.CreditCard
	txnCount int
}

func (s *memStore) snapshot() snapshot {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return snapshot{
		accounts: maps.Clone(s.accounts),
		cards:    maps.Clone(s.cards),
		txnCount: len(s.txns),
	}
}

func (s *memStore) restore(snap snapshot) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.accounts = snap.accounts
	s.cards = snap.cards
	s.txns = s.txns[:snap.txnCount]
}

func page[T any](items []T, page, pageSize int) []T {
	if page < 0 || pageSize <= 0 || page > len(items)/pageSize {
		return []T{}
	}
	start := page * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- In-Memory Transactor (serializing, with rollback) ---

type inMemoryTransactor struct {
	store *memStore
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.store.txMu.Lock()
	return &memTx{store: t.store, snap: t.store.snapshot()}, nil
}

// memTx restores the pre-Begin state on Rollback. Rollback after Commit is a no-op.
type memTx struct {
	store *memStore
	snap  snapshot
	done  bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.restore(t.snap)
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }

// --- In-Memory Member Repo ---

type inMemoryMemberRepo struct{ store *memStore }

func (r *inMemoryMemberRepo) Create(ctx context.Context, m *domain.Member) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	for _, existing := range r.store.members {
		if existing.Email == m.Email {
			return fmt.Errorf("insert member: %w", &pgconn.PgError{Code: "23505"})
		}
	}
	r.store.members[m.ID] = *m
	return nil
}

func (r *inMemoryMemberRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	m, ok := r.store.members[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *inMemoryMemberRepo) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	for _, m := range r.store.members {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMemberRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Member, error) {
	return r.GetByID(ctx, id)
}

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct{ store *memStore }

func (r *inMemoryAccountRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Account) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	for _, existing := range r.store.accounts {
		if existing.AccountNumber == a.AccountNumber {
			return fmt.Errorf("account number already exists")
		}
	}
	r.store.accounts[a.ID] = *a
	return nil
}

func (r *inMemoryAccountRepo) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	for _, a := range r.store.accounts {
		if a.AccountNumber == accountNumber {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Account, error) {
	return r.GetByNumber(ctx, accountNumber)
}

func (r *inMemoryAccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	a, ok := r.store.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *inMemoryAccountRepo) ExistsByNumber(ctx context.Context, tx pgx.Tx, accountNumber string) (bool, error) {
	a, err := r.GetByNumber(ctx, accountNumber)
	return a != nil, err
}

func (r *inMemoryAccountRepo) CountByMember(ctx context.Context, tx pgx.Tx, memberID uuid.UUID) (int, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	n := 0
	for _, a := range r.store.accounts {
		if a.MemberID == memberID {
			n++
		}
	}
	return n, nil
}

func (r *inMemoryAccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance int64) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	a, ok := r.store.accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	if balance < 0 {
		return fmt.Errorf("balance check violated")
	}
	a.Balance = balance
	r.store.accounts[id] = a
	return nil
}

func (r *inMemoryAccountRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	delete(r.store.accounts, id)
	return nil
}

func (r *inMemoryAccountRepo) ListByMember(ctx context.Context, memberID uuid.UUID, pageNum, pageSize int) ([]domain.Account, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	var result []domain.Account
	for _, a := range r.store.accounts {
		if a.MemberID == memberID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Balance != result[j].Balance {
			return result[i].Balance > result[j].Balance
		}
		return result[i].AccountNumber < result[j].AccountNumber
	})
	return page(result, pageNum, pageSize), nil
}

// --- In-Memory Card Repo ---

type inMemoryCardRepo struct{ store *memStore }

func (r *inMemoryCardRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.CreditCard) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	for _, existing := range r.store.cards {
		if existing.CardNumber == c.CardNumber || existing.AccountID == c.AccountID {
			return fmt.Errorf("unique violation on credit_cards")
		}
	}
	r.store.cards[c.ID] = *c
	return nil
}

func (r *inMemoryCardRepo) GetByNumber(ctx context.Context, cardNumber string) (*domain.CreditCard, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	for _, c := range r.store.cards {
		if c.CardNumber == cardNumber {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *inMemoryCardRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, cardNumber string) (*domain.CreditCard, error) {
	return r.GetByNumber(ctx, cardNumber)
}

func (r *inMemoryCardRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.CreditCard, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	c, ok := r.store.cards[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *inMemoryCardRepo) ExistsByNumber(ctx context.Context, tx pgx.Tx, cardNumber string) (bool, error) {
	c, err := r.GetByNumber(ctx, cardNumber)
	return c != nil, err
}

func (r *inMemoryCardRepo) CountByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	n := 0
	for _, c := range r.store.cards {
		if c.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (r *inMemoryCardRepo) Update(ctx context.Context, tx pgx.Tx, c *domain.CreditCard) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	if _, ok := r.store.cards[c.ID]; !ok {
		return fmt.Errorf("card not found")
	}
	if c.UsageAmount < 0 || c.UsageAmount > c.LimitAmount {
		return fmt.Errorf("usage check violated")
	}
	r.store.cards[c.ID] = *c
	return nil
}

func (r *inMemoryCardRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	delete(r.store.cards, id)
	return nil
}

func (r *inMemoryCardRepo) list(match func(domain.CreditCard) bool, pageNum, pageSize int) []domain.CreditCard {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	var result []domain.CreditCard
	for _, c := range r.store.cards {
		if match(c) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return page(result, pageNum, pageSize)
}

func (r *inMemoryCardRepo) ListByMember(ctx context.Context, memberID uuid.UUID, pageNum, pageSize int) ([]domain.CreditCard, error) {
	return r.list(func(c domain.CreditCard) bool { return c.MemberID == memberID }, pageNum, pageSize), nil
}

func (r *inMemoryCardRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, pageNum, pageSize int) ([]domain.CreditCard, error) {
	return r.list(func(c domain.CreditCard) bool { return c.AccountID == accountID }, pageNum, pageSize), nil
}

func (r *inMemoryCardRepo) ListSettlementCandidates(ctx context.Context, billingDays []int) ([]uuid.UUID, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	var ids []uuid.UUID
	for _, c := range r.store.cards {
		if c.Available && c.UsageAmount > 0 && slices.Contains(billingDays, c.BillingDay) {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct{ store *memStore }

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	r.store.txns = append(r.store.txns, *t)
	return nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, q ports.TransactionQuery) ([]domain.Transaction, error) {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.store.txns {
		if t.AccountID != q.AccountID {
			continue
		}
		if q.CardID != nil && (t.CardID == nil || *t.CardID != *q.CardID) {
			continue
		}
		if len(q.Types) > 0 && !slices.Contains(q.Types, t.TransactionType) {
			continue
		}
		if q.From != nil && t.CreatedAt.Before(*q.From) {
			continue
		}
		if q.To != nil && t.CreatedAt.After(*q.To) {
			continue
		}
		result = append(result, t)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return page(result, q.Page, q.PageSize), nil
}

// all returns every logged transaction in append order.
func (r *inMemoryTransactionRepo) all() []domain.Transaction {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	return slices.Clone(r.store.txns)
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct{ store *memStore }

func (r *inMemoryAuditRepo) Create(ctx context.Context, l *domain.AuditLog) error {
	r.store.dataMu.Lock()
	defer r.store.dataMu.Unlock()
	r.store.audits = append(r.store.audits, *l)
	return nil
}

func (r *inMemoryAuditRepo) actions() []domain.AuditAction {
	r.store.dataMu.RLock()
	defer r.store.dataMu.RUnlock()
	out := make([]domain.AuditAction, 0, len(r.store.audits))
	for _, a := range r.store.audits {
		out = append(out, a.Action)
	}
	return out
}
