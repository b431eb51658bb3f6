package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// MemberServiceImpl implements ports.MemberService.
type MemberServiceImpl struct {
	memberRepo ports.MemberRepository
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
}

// NewMemberService creates a new MemberServiceImpl.
func NewMemberService(
	memberRepo ports.MemberRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
) *MemberServiceImpl {
	return &MemberServiceImpl{
		memberRepo: memberRepo,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
	}
}

// Register creates a new member. Emails are unique case-insensitively.
func (s *MemberServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.Member, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.memberRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	member := &domain.Member{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// A concurrent registration can pass the lookup above and still lose the
	// insert on the unique email index.
	if err := s.memberRepo.Create(ctx, member); err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.ErrEmailExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create member: %w", err))
	}

	return member, nil
}

// Login validates credentials and returns a JWT token.
func (s *MemberServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	member, err := s.memberRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find member: %w", err))
	}
	if member == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, member.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(member.ID, member.Email)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}

// GetProfile returns the member identified by a verified token.
func (s *MemberServiceImpl) GetProfile(ctx context.Context, memberID uuid.UUID) (*domain.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find member: %w", err))
	}
	if member == nil {
		return nil, apperror.ErrMemberNotFound()
	}
	return member, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
