package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"
	"fintech-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// CardServiceImpl implements ports.CardService.
type CardServiceImpl struct {
	cardRepo    ports.CardRepository
	accountRepo ports.AccountRepository
	memberRepo  ports.MemberRepository
	txRepo      ports.TransactionRepository
	hashSvc     ports.HashService
	transactor  ports.DBTransactor
	notifier    ports.Notifier // optional
	log         zerolog.Logger
	now         func() time.Time
}

// NewCardService creates a new CardServiceImpl. notifier may be nil.
func NewCardService(
	cardRepo ports.CardRepository,
	accountRepo ports.AccountRepository,
	memberRepo ports.MemberRepository,
	txRepo ports.TransactionRepository,
	hashSvc ports.HashService,
	transactor ports.DBTransactor,
	notifier ports.Notifier,
	log zerolog.Logger,
) *CardServiceImpl {
	return &CardServiceImpl{
		cardRepo:    cardRepo,
		accountRepo: accountRepo,
		memberRepo:  memberRepo,
		txRepo:      txRepo,
		hashSvc:     hashSvc,
		transactor:  transactor,
		notifier:    notifier,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateCard issues a credit card linked to an account.
//
// Flow:
//  1. Validate card terms and card PIN format
//  2. BEGIN TX, SELECT account FOR UPDATE, verify account PIN
//  3. Check minimum opening balance and one-card-per-account
//  4. Allocate a unique card number
//  5. INSERT card, COMMIT
func (s *CardServiceImpl) CreateCard(ctx context.Context, req ports.CreateCardRequest) (*domain.CreditCard, error) {
	if err := domain.ValidateCardTerms(req.LimitAmount, req.BillingDay, req.ExpirationYears); err != nil {
		return nil, apperror.ErrInvalidCardTerms(err.Error())
	}
	if !domain.ValidPin(req.CardPin) {
		return nil, apperror.ErrInvalidPinFormat()
	}

	pinHash, err := s.hashSvc.Hash(req.CardPin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash card pin: %w", err))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accountRepo.GetByNumberForUpdate(ctx, dbTx, req.AccountNumber)
	if err != nil {
		return nil, lockFailure("lock account", err)
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if err := verifyPin(s.hashSvc, req.AccountPin, account.PinHash); err != nil {
		return nil, err
	}
	if account.Balance < domain.MinCardOpeningBalance {
		return nil, apperror.ErrInsufficientMinimumBalance()
	}

	existing, err := s.cardRepo.CountByAccount(ctx, dbTx, account.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count cards: %w", err))
	}
	if existing > 0 {
		return nil, apperror.ErrDuplicateCardForAccount()
	}

	owner, err := s.memberRepo.GetByID(ctx, account.MemberID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get member: %w", err))
	}
	if owner == nil {
		return nil, apperror.ErrMemberNotFound()
	}

	number, ok, err := allocateNumber(ctx, generateCardNumber, func(ctx context.Context, n string) (bool, error) {
		return s.cardRepo.ExistsByNumber(ctx, dbTx, n)
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("allocate card number: %w", err))
	}
	if !ok {
		return nil, apperror.ErrCardNumberExhausted()
	}

	now := s.now()
	card := &domain.CreditCard{
		ID:          uuid.New(),
		CardNumber:  number,
		PinHash:     pinHash,
		OwnerName:   owner.Name,
		UsageAmount: 0,
		LimitAmount: req.LimitAmount,
		BillingDay:  req.BillingDay,
		ExpiresAt:   now.AddDate(req.ExpirationYears, 0, 0),
		Available:   true,
		Settled:     true,
		AccountID:   account.ID,
		MemberID:    account.MemberID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.cardRepo.Create(ctx, dbTx, card); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create card: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("card_id", card.ID.String()).
		Str("account_number", account.AccountNumber).
		Int64("limit", card.LimitAmount).
		Int("billing_day", card.BillingDay).
		Msg("card issued")

	return card, nil
}

// ChargeCard accrues a purchase as card usage. The account balance is
// untouched; the CARD_USAGE entry records it unchanged.
func (s *CardServiceImpl) ChargeCard(ctx context.Context, cardNumber, cardPin string, amount int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	card, err := s.lockCard(ctx, dbTx, cardNumber)
	if err != nil {
		return nil, err
	}
	if !card.Available {
		return nil, apperror.ErrCardStopped()
	}
	if err := verifyPin(s.hashSvc, cardPin, card.PinHash); err != nil {
		return nil, err
	}
	now := s.now()
	if card.IsExpired(now) {
		return nil, apperror.ErrCardExpired()
	}
	if !card.CanCharge(amount) {
		return nil, apperror.ErrLimitExceeded()
	}

	account, err := s.lockLinkedAccount(ctx, dbTx, card)
	if err != nil {
		return nil, err
	}

	card.Charge(amount)
	card.UpdatedAt = now
	if err := s.cardRepo.Update(ctx, dbTx, card); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update card: %w", err))
	}

	txn := cardTransaction(account, card, domain.TransactionTypeCardUsage, amount, now)
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("card_id", card.ID.String()).
		Int64("amount", amount).
		Int64("usage", card.UsageAmount).
		Msg("card charged")

	return txn, nil
}

// ImmediatePayment pays down outstanding usage from the linked account.
func (s *CardServiceImpl) ImmediatePayment(ctx context.Context, cardNumber, cardPin string, amount int64) (*domain.CreditCard, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	card, err := s.lockCard(ctx, dbTx, cardNumber)
	if err != nil {
		return nil, err
	}
	if err := verifyPin(s.hashSvc, cardPin, card.PinHash); err != nil {
		return nil, err
	}
	if amount > card.UsageAmount {
		return nil, apperror.ErrAmountExceedsUsage()
	}

	account, err := s.lockLinkedAccount(ctx, dbTx, card)
	if err != nil {
		return nil, err
	}
	if !account.CanDebit(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	now := s.now()
	account.Balance -= amount
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, account.ID, account.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit account: %w", err))
	}

	card.Pay(amount)
	card.UpdatedAt = now
	if err := s.cardRepo.Update(ctx, dbTx, card); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update card: %w", err))
	}

	txn := cardTransaction(account, card, domain.TransactionTypeCardImmediatePayment, amount, now)
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("card_id", card.ID.String()).
		Int64("amount", amount).
		Int64("usage", card.UsageAmount).
		Bool("available", card.Available).
		Msg("card paid")

	return card, nil
}

// DeleteCard removes a card in good standing. Both the card PIN and the
// linked account PIN must match.
func (s *CardServiceImpl) DeleteCard(ctx context.Context, cardNumber, cardPin, accountPin string) (string, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	card, err := s.lockCard(ctx, dbTx, cardNumber)
	if err != nil {
		return "", err
	}
	if err := verifyPin(s.hashSvc, cardPin, card.PinHash); err != nil {
		return "", err
	}

	account, err := s.lockLinkedAccount(ctx, dbTx, card)
	if err != nil {
		return "", err
	}
	if err := verifyPin(s.hashSvc, accountPin, account.PinHash); err != nil {
		return "", err
	}
	if !card.IsDeletable() {
		return "", apperror.ErrCardNotDeletable()
	}

	if err := s.cardRepo.Delete(ctx, dbTx, card.ID); err != nil {
		return "", apperror.InternalError(fmt.Errorf("delete card: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return "", apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("card_id", card.ID.String()).Msg("card deleted")
	return card.CardNumber, nil
}

// ListCardsByMember returns one page of the member's cards, newest first.
func (s *CardServiceImpl) ListCardsByMember(ctx context.Context, memberID uuid.UUID, page int) ([]domain.CreditCard, error) {
	if page < 0 {
		return nil, apperror.Validation("page must be >= 0")
	}
	cards, err := s.cardRepo.ListByMember(ctx, memberID, page, ports.DefaultPageSize)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list cards: %w", err))
	}
	if cards == nil {
		cards = []domain.CreditCard{}
	}
	return cards, nil
}

// ListCardsByAccount returns one page of cards linked to the account.
func (s *CardServiceImpl) ListCardsByAccount(ctx context.Context, accountNumber, accountPin string, page int) ([]domain.CreditCard, error) {
	if page < 0 {
		return nil, apperror.Validation("page must be >= 0")
	}

	account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if err := verifyPin(s.hashSvc, accountPin, account.PinHash); err != nil {
		return nil, err
	}

	cards, err := s.cardRepo.ListByAccount(ctx, account.ID, page, ports.DefaultPageSize)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list cards: %w", err))
	}
	if cards == nil {
		cards = []domain.CreditCard{}
	}
	return cards, nil
}

// CardUsageHistory returns CARD_USAGE entries of the card between the
// calendar days of From and To, both inclusive.
func (s *CardServiceImpl) CardUsageHistory(ctx context.Context, req ports.CardHistoryRequest) ([]domain.Transaction, error) {
	if req.Page < 0 {
		return nil, apperror.Validation("page must be >= 0")
	}
	if req.From.IsZero() || req.To.IsZero() {
		return nil, apperror.Validation("from and to dates are required")
	}
	from := startOfDay(req.From)
	to := startOfDay(req.To).AddDate(0, 0, 1).Add(-time.Nanosecond)
	if to.Before(from) {
		return nil, apperror.Validation("from must not be after to")
	}

	card, err := s.cardRepo.GetByNumber(ctx, req.CardNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get card: %w", err))
	}
	if card == nil {
		return nil, apperror.ErrCardNotFound()
	}
	if err := verifyPin(s.hashSvc, req.CardPin, card.PinHash); err != nil {
		return nil, err
	}

	txns, err := s.txRepo.List(ctx, ports.TransactionQuery{
		AccountID: card.AccountID,
		CardID:    &card.ID,
		Types:     []domain.TransactionType{domain.TransactionTypeCardUsage},
		From:      &from,
		To:        &to,
		Page:      req.Page,
		PageSize:  ports.DefaultPageSize,
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return txns, nil
}

// settleResult classifies one card's settlement attempt.
type settleResult int

const (
	settleSkipped settleResult = iota
	settleFull
	settleStopped
)

// RunScheduledSettlement collects outstanding usage from every card whose
// billing day falls on today. Each card settles in its own unit of work,
// so one failure never rolls back another card.
func (s *CardServiceImpl) RunScheduledSettlement(ctx context.Context, today time.Time) (*ports.SettlementReport, error) {
	report := &ports.SettlementReport{Day: today}

	ids, err := s.cardRepo.ListSettlementCandidates(ctx, domain.BillingDaysFor(today))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list settlement candidates: %w", err))
	}
	report.Scanned = len(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, notice, err := s.settleCard(ctx, id, today)
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, ports.SettlementFailure{CardID: id, Err: err})
			s.log.Error().Err(err).Str("card_id", id.String()).Msg("card settlement failed")
			continue
		}

		switch result {
		case settleSkipped:
			report.Skipped++
			continue
		case settleFull:
			report.Settled++
		case settleStopped:
			report.Stopped++
			s.notifyStopped(ctx, notice)
		}
		report.Collected += notice.Collected
	}

	s.log.Info().
		Str("day", today.Format("2006-01-02")).
		Int("scanned", report.Scanned).
		Int("settled", report.Settled).
		Int("stopped", report.Stopped).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int64("collected", report.Collected).
		Msg("settlement run finished")

	return report, nil
}

// settleCard runs one card's settlement. The returned notice carries the
// collected amount for every non-skipped result.
func (s *CardServiceImpl) settleCard(ctx context.Context, cardID uuid.UUID, today time.Time) (settleResult, ports.CardStoppedNotice, error) {
	var notice ports.CardStoppedNotice

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return settleSkipped, notice, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	card, err := s.cardRepo.GetByIDForUpdate(ctx, dbTx, cardID)
	if err != nil {
		return settleSkipped, notice, fmt.Errorf("lock card: %w", err)
	}
	// The candidate list is read without locks; eligibility may have changed.
	if card == nil || !card.Available || card.UsageAmount == 0 ||
		!card.IsBillingDay(today) || card.SettledOn(today) {
		return settleSkipped, notice, nil
	}

	account, err := s.accountRepo.GetByIDForUpdate(ctx, dbTx, card.AccountID)
	if err != nil {
		return settleSkipped, notice, fmt.Errorf("lock account: %w", err)
	}
	if account == nil {
		return settleSkipped, notice, errors.New("linked account not found")
	}

	outcome := domain.ComputeSettlement(account.Balance, card.UsageAmount)

	account.Balance = outcome.NewBalance
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, account.ID, account.Balance); err != nil {
		return settleSkipped, notice, fmt.Errorf("debit account: %w", err)
	}

	card.ApplySettlement(outcome, today)
	card.UpdatedAt = s.now()
	if err := s.cardRepo.Update(ctx, dbTx, card); err != nil {
		return settleSkipped, notice, fmt.Errorf("update card: %w", err)
	}

	txn := cardTransaction(account, card, domain.TransactionTypeCardSettlement, outcome.Collected, today.UTC())
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return settleSkipped, notice, fmt.Errorf("create transaction: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return settleSkipped, notice, fmt.Errorf("commit tx: %w", err)
	}

	notice = ports.CardStoppedNotice{
		OwnerName:     card.OwnerName,
		CardNumber:    maskCardNumber(card.CardNumber),
		Collected:     outcome.Collected,
		Outstanding:   outcome.RemainingUsage,
		SettlementDay: today,
	}
	if outcome.FullyPaid {
		return settleFull, notice, nil
	}

	s.log.Warn().
		Str("card_id", card.ID.String()).
		Int64("collected", outcome.Collected).
		Int64("outstanding", outcome.RemainingUsage).
		Msg("settlement shortfall, card stopped")

	if member, err := s.memberRepo.GetByID(ctx, card.MemberID); err == nil && member != nil {
		notice.Email = member.Email
	}
	return settleStopped, notice, nil
}

// notifyStopped is best effort; the settlement itself has already committed.
func (s *CardServiceImpl) notifyStopped(ctx context.Context, notice ports.CardStoppedNotice) {
	if s.notifier == nil || notice.Email == "" {
		return
	}
	if err := s.notifier.CardStopped(ctx, notice); err != nil {
		s.log.Warn().Err(err).Str("card_number", notice.CardNumber).Msg("card stopped notice failed")
	}
}

func (s *CardServiceImpl) lockCard(ctx context.Context, dbTx pgx.Tx, cardNumber string) (*domain.CreditCard, error) {
	card, err := s.cardRepo.GetByNumberForUpdate(ctx, dbTx, cardNumber)
	if err != nil {
		return nil, lockFailure("lock card", err)
	}
	if card == nil {
		return nil, apperror.ErrCardNotFound()
	}
	return card, nil
}

// lockLinkedAccount locks the card's account. Callers hold the card lock first.
func (s *CardServiceImpl) lockLinkedAccount(ctx context.Context, dbTx pgx.Tx, card *domain.CreditCard) (*domain.Account, error) {
	account, err := s.accountRepo.GetByIDForUpdate(ctx, dbTx, card.AccountID)
	if err != nil {
		return nil, lockFailure("lock account", err)
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}

func cardTransaction(account *domain.Account, card *domain.CreditCard, typ domain.TransactionType, amount int64, at time.Time) *domain.Transaction {
	txn := domain.NewTransaction(account, typ, amount, at)
	cardID := card.ID
	txn.CardID = &cardID
	return txn
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// maskCardNumber keeps only the last four digits.
func maskCardNumber(n string) string {
	if len(n) <= 4 {
		return n
	}
	masked := make([]byte, len(n))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(n)-4:], n[len(n)-4:])
	return string(masked)
}
