package domain

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/internal/repository"
	"github.com/shopspring/decimal"
)

var ErrLedgerDuplicated = errors.New("ledger step already recorded")

// LedgerRecord is one on-chain money movement of a sale or of a raffle payout.
type LedgerRecord struct {
	SaleID   string
	RaffleID string
	Step     entity.LedgerStep
	Type     entity.TransactionType

	From     string
	To       string
	Amount   decimal.Decimal
	AssetID  string
	BlockNum uint32
	TxRef    string
}

func (r LedgerRecord) idempotencyKey() string {
	if r.SaleID != "" {
		return entity.SaleIdempotencyKey(r.SaleID, r.Step)
	}

	return entity.RaffleIdempotencyKey(r.RaffleID, r.Step)
}

// SettlementLedger is the append-only record of money movements, keyed by the
// sale or raffle step which caused them.
type SettlementLedger interface {
	Record(context.Context, LedgerRecord) (string, error)
	HasRecorded(ctx context.Context, saleID string, step entity.LedgerStep) (bool, error)
	HasRecordedForRaffle(ctx context.Context, raffleID string, step entity.LedgerStep) (bool, error)
	ListBySale(ctx context.Context, saleID string) ([]entity.Transaction, error)
	// ListByRaffle returns every row of the raffle, including the rows of
	// its sales.
	ListByRaffle(ctx context.Context, raffleID string) ([]entity.Transaction, error)
	ListPayoutsByRaffle(ctx context.Context, raffleID string) ([]entity.Transaction, error)
}

type settlementLedger struct {
	transactionRepo repository.TransactionRepository
}

func NewSettlementLedger(transactionRepo repository.TransactionRepository) *settlementLedger {
	return &settlementLedger{transactionRepo: transactionRepo}
}

// Record stores the movement. It returns ErrLedgerDuplicated if the step has
// already been recorded and propagates storage errors unchanged.
func (l *settlementLedger) Record(ctx context.Context, r LedgerRecord) (string, error) {
	tx := &entity.Transaction{
		Base:            entity.Base{ID: uuid.NewString()},
		SaleID:          sql.NullString{Valid: r.SaleID != "", String: r.SaleID},
		RaffleID:        sql.NullString{Valid: r.RaffleID != "", String: r.RaffleID},
		Step:            r.Step,
		TransactionType: r.Type,
		TransferFrom:    r.From,
		TransferTo:      r.To,
		Amount:          r.Amount,
		AssetID:         r.AssetID,
		ChainBlockNum:   r.BlockNum,
		ChainTxRef:      r.TxRef,
		IdempotencyKey:  r.idempotencyKey(),
	}

	if err := l.transactionRepo.Create(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicated) {
			return "", ErrLedgerDuplicated
		}

		return "", err
	}

	return tx.ID, nil
}

func (l *settlementLedger) HasRecorded(ctx context.Context, saleID string, step entity.LedgerStep) (bool, error) {
	return l.transactionRepo.ExistsByIdempotencyKey(ctx, entity.SaleIdempotencyKey(saleID, step))
}

func (l *settlementLedger) HasRecordedForRaffle(
	ctx context.Context, raffleID string, step entity.LedgerStep,
) (bool, error) {
	return l.transactionRepo.ExistsByIdempotencyKey(ctx, entity.RaffleIdempotencyKey(raffleID, step))
}

func (l *settlementLedger) ListBySale(ctx context.Context, saleID string) ([]entity.Transaction, error) {
	return l.transactionRepo.GetBySaleID(ctx, saleID)
}

func (l *settlementLedger) ListByRaffle(ctx context.Context, raffleID string) ([]entity.Transaction, error) {
	return l.transactionRepo.GetByRaffleID(ctx, raffleID)
}

func (l *settlementLedger) ListPayoutsByRaffle(ctx context.Context, raffleID string) ([]entity.Transaction, error) {
	return l.transactionRepo.GetPayoutsByRaffleID(ctx, raffleID)
}
