package postgres

import (
	"context"
	"errors"
	"fmt"

	"fintech-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const memberColumns = `id, email, password_hash, name, phone, created_at, updated_at`

// MemberRepo implements ports.MemberRepository.
type MemberRepo struct {
	pool Pool
}

// NewMemberRepo creates a new MemberRepo.
func NewMemberRepo(pool Pool) *MemberRepo {
	return &MemberRepo{pool: pool}
}

// Create inserts a new member into the database.
func (r *MemberRepo) Create(ctx context.Context, m *domain.Member) error {
	query := `INSERT INTO members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Email, m.PasswordHash, m.Name, m.Phone, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// GetByID fetches a member by its UUID.
func (r *MemberRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return scanMember(r.pool.QueryRow(ctx, query, id), "get member by id")
}

// GetByEmail fetches a member by login email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE email = $1`
	return scanMember(r.pool.QueryRow(ctx, query, email), "get member by email")
}

// GetByIDForUpdate fetches a member with pessimistic locking.
// This MUST be called within a transaction.
func (r *MemberRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1 FOR UPDATE`
	return scanMember(tx.QueryRow(ctx, query, id), "get member for update")
}

func scanMember(row pgx.Row, op string) (*domain.Member, error) {
	m := &domain.Member{}
	err := row.Scan(&m.ID, &m.Email, &m.PasswordHash, &m.Name, &m.Phone, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}
