package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rafflelab/backend/internal/client"
	"github.com/rafflelab/backend/internal/common"
	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/internal/repository"
	"github.com/rafflelab/backend/pkg/enum"
	"github.com/rafflelab/backend/pkg/errorx"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/rafflelab/backend/pkg/xsync"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HouseAccounts are the fixed chain accounts of the platform. Payment funds
// players and collects payouts back, Receiver holds ticket proceeds until the
// raffle is drawn.
type HouseAccounts struct {
	Payment  client.ChainAccount
	Receiver client.ChainAccount
}

type PurchaseDomain interface {
	CreateSale(context.Context, *model.CreateSaleRequest) (*model.CreateSaleResponse, error)
	PurchaseCashSale(context.Context, *model.PurchaseCashSaleRequest) (*model.PurchaseCashSaleResponse, error)
	GetSaleEntries(context.Context, *model.GetSaleEntriesRequest) (*model.GetSaleEntriesResponse, error)

	// ProcessPurchase settles a sale on chain and issues its entries. It is
	// safe to call again after any failure.
	ProcessPurchase(ctx context.Context, saleID string) (*model.PurchaseResult, error)
}

type purchaseDomain struct {
	saleRepo   repository.SaleRepository
	raffleRepo repository.RaffleRepository
	bundleRepo repository.BundleRepository
	userRepo   repository.UserRepository
	entryRepo  repository.EntryRepository
	eventRepo  repository.PaymentEventRepository
	ledger     SettlementLedger
	reconciler EntryReconciler
	gateway    client.ChainGateway
	notifier   client.Notifier
	locker     xsync.Locker
	accounts   HouseAccounts
}

func NewPurchaseDomain(
	saleRepo repository.SaleRepository,
	raffleRepo repository.RaffleRepository,
	bundleRepo repository.BundleRepository,
	userRepo repository.UserRepository,
	entryRepo repository.EntryRepository,
	eventRepo repository.PaymentEventRepository,
	ledger SettlementLedger,
	reconciler EntryReconciler,
	gateway client.ChainGateway,
	notifier client.Notifier,
	locker xsync.Locker,
	accounts HouseAccounts,
) *purchaseDomain {
	return &purchaseDomain{
		saleRepo:   saleRepo,
		raffleRepo: raffleRepo,
		bundleRepo: bundleRepo,
		userRepo:   userRepo,
		entryRepo:  entryRepo,
		eventRepo:  eventRepo,
		ledger:     ledger,
		reconciler: reconciler,
		gateway:    gateway,
		notifier:   notifier,
		locker:     locker,
		accounts:   accounts,
	}
}

// settlement is everything a pipeline run needs, loaded once per run.
type settlement struct {
	sale    *entity.Sale
	raffle  *entity.Raffle
	bundle  *entity.Bundle
	player  *entity.User
	account client.ChainAccount

	lotteryID            string
	progressiveLotteryID string
}

func (s *settlement) lotteries() int {
	if s.progressiveLotteryID != "" {
		return 2
	}
	return 1
}

func (d *purchaseDomain) CreateSale(
	ctx context.Context, req *model.CreateSaleRequest,
) (*model.CreateSaleResponse, error) {
	paymentType, err := enum.ToEnum[entity.PaymentType](req.PaymentType)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid payment type: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid payment type")
	}

	if paymentType == entity.PaymentTypeCard && req.ExternalPaymentRef == "" {
		return nil, errorx.New(errorx.BadRequest, "Card sales require an external payment ref")
	}

	if paymentType == entity.PaymentTypeCash && req.ExternalPaymentRef != "" {
		return nil, errorx.New(errorx.BadRequest, "Cash sales must not have an external payment ref")
	}

	raffle, err := d.raffleRepo.GetByID(ctx, req.RaffleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get raffle: %v", err)
		return nil, errorx.Unknown
	}

	now := time.Now()
	if now.Before(raffle.StartDatetime) || now.After(raffle.EndDatetime) {
		return nil, errorx.New(errorx.BadRequest, "Raffle is not on sale")
	}

	bundle, err := d.bundleRepo.GetByID(ctx, req.TicketBundleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found bundle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get bundle: %v", err)
		return nil, errorx.Unknown
	}

	if bundle.RaffleID != raffle.ID {
		return nil, errorx.New(errorx.BadRequest, "Bundle does not belong to the raffle")
	}

	if !req.TotalPrice.Equal(bundle.Price) {
		return nil, errorx.New(errorx.BadRequest, "Total price must equal the bundle price")
	}

	if _, err := d.userRepo.GetByID(ctx, req.PlayerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found player")
		}

		xcontext.Logger(ctx).Errorf("Cannot get player: %v", err)
		return nil, errorx.Unknown
	}

	if req.ExternalPaymentRef != "" {
		_, err := d.saleRepo.GetByExternalPaymentRef(ctx, req.ExternalPaymentRef)
		if err == nil {
			return nil, errorx.New(errorx.AlreadyExists, "External payment ref is already used")
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get sale by external payment ref: %v", err)
			return nil, errorx.Unknown
		}
	}

	sellerID := req.SellerID
	if sellerID == "" {
		sellerID = xcontext.RequestUserID(ctx)
	}

	sale := &entity.Sale{
		Base:               entity.Base{ID: uuid.NewString()},
		RaffleID:           raffle.ID,
		PlayerID:           req.PlayerID,
		SellerID:           sql.NullString{Valid: sellerID != "", String: sellerID},
		BeneficiaryID:      sql.NullString{Valid: req.BeneficiaryID != "", String: req.BeneficiaryID},
		TicketBundleID:     bundle.ID,
		TotalPrice:         bundle.Price,
		PaymentType:        paymentType,
		PaymentStatus:      entity.PaymentStatusWaiting,
		ExternalPaymentRef: sql.NullString{Valid: req.ExternalPaymentRef != "", String: req.ExternalPaymentRef},
		SettlementState:    entity.SettlementInitiated,
	}

	if err := d.saleRepo.Create(ctx, sale); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create sale: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateSaleResponse{Sale: convertSale(sale)}, nil
}

func (d *purchaseDomain) PurchaseCashSale(
	ctx context.Context, req *model.PurchaseCashSaleRequest,
) (*model.PurchaseCashSaleResponse, error) {
	sale, err := d.saleRepo.GetByID(ctx, req.SaleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found sale")
		}

		xcontext.Logger(ctx).Errorf("Cannot get sale: %v", err)
		return nil, errorx.Unknown
	}

	if sale.PaymentType != entity.PaymentTypeCash {
		return nil, errorx.New(errorx.BadRequest, "Only cash sales can be purchased directly")
	}

	result, err := d.ProcessPurchase(ctx, sale.ID)
	if err != nil {
		return nil, err
	}

	return (*model.PurchaseCashSaleResponse)(result), nil
}

func (d *purchaseDomain) GetSaleEntries(
	ctx context.Context, req *model.GetSaleEntriesRequest,
) (*model.GetSaleEntriesResponse, error) {
	sale, err := d.saleRepo.GetByID(ctx, req.SaleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found sale")
		}

		xcontext.Logger(ctx).Errorf("Cannot get sale: %v", err)
		return nil, errorx.Unknown
	}

	result, err := d.saleResult(ctx, sale)
	if err != nil {
		return nil, err
	}

	return (*model.GetSaleEntriesResponse)(result), nil
}

func (d *purchaseDomain) ProcessPurchase(ctx context.Context, saleID string) (*model.PurchaseResult, error) {
	sale, err := d.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found sale")
		}

		xcontext.Logger(ctx).Errorf("Cannot get sale: %v", err)
		return nil, errorx.Unknown
	}

	if sale.PaymentStatus == entity.PaymentStatusSuccess {
		return d.saleResult(ctx, sale)
	}

	if sale.PaymentStatus == entity.PaymentStatusCancel {
		return nil, errorx.New(errorx.BadRequest, "Sale has been canceled")
	}

	if sale.PaymentType == entity.PaymentTypeCard {
		confirmed, err := d.eventRepo.ExistsByPaymentRef(ctx, sale.ExternalPaymentRef.String, PaymentEventSucceeded)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot check payment events of sale: %v", err)
			return nil, errorx.Unknown
		}

		if !confirmed {
			return nil, errorx.New(errorx.BadRequest, "Card payment is not confirmed")
		}
	}

	s, err := d.loadSettlement(ctx, sale)
	if err != nil {
		return nil, err
	}

	unlock, err := xsync.LockAll(ctx, d.locker,
		common.LockKeyPlayerLottery(s.player.ID, s.lotteryID),
		common.LockKeyPlayerLottery(s.player.ID, s.progressiveLotteryID),
	)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot lock settlement of sale %s: %v", sale.ID, err)
		return nil, errorx.New(errorx.Unavailable, "Settlement is busy, try again later")
	}
	defer unlock()

	// Another run may have progressed the sale while waiting for the lock.
	s.sale, err = d.saleRepo.GetByID(ctx, sale.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload sale: %v", err)
		return nil, errorx.Unknown
	}

	if s.sale.PaymentStatus == entity.PaymentStatusSuccess {
		return d.saleResult(ctx, s.sale)
	}

	if s.sale.PaymentStatus == entity.PaymentStatusCancel {
		return nil, errorx.New(errorx.BadRequest, "Sale has been canceled")
	}

	steps := []struct {
		target entity.SettlementState
		run    func(context.Context, *settlement) error
	}{
		{entity.SettlementFiatSettled, d.settleFiat},
		{entity.SettlementTicketsFunded, d.fundTickets},
		{entity.SettlementChainTicketsPurchased, d.purchaseChainTickets},
		{entity.SettlementEscrowSettled, d.settleEscrow},
		{entity.SettlementEntriesIssued, d.issueEntries},
	}

	for _, step := range steps {
		if s.sale.SettlementState.Reached(step.target) {
			continue
		}

		if err := step.run(ctx, s); err != nil {
			common.IncCounter(common.SettlementStepFailure, string(step.target))
			return nil, err
		}

		s.sale.SettlementState = step.target
		xcontext.Logger(ctx).Infof("Sale %s reached %s", s.sale.ID, step.target)
	}

	s.sale.PaymentStatus = entity.PaymentStatusSuccess
	result, err := d.saleResult(ctx, s.sale)
	if err != nil {
		return nil, err
	}

	d.notifyPurchase(ctx, s, result)
	return result, nil
}

func (d *purchaseDomain) loadSettlement(ctx context.Context, sale *entity.Sale) (*settlement, error) {
	raffle, err := d.raffleRepo.GetByID(ctx, sale.RaffleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get raffle: %v", err)
		return nil, errorx.Unknown
	}

	bundle, err := d.bundleRepo.GetByID(ctx, sale.TicketBundleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found bundle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get bundle: %v", err)
		return nil, errorx.Unknown
	}

	player, err := d.userRepo.GetByID(ctx, sale.PlayerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found player")
		}

		xcontext.Logger(ctx).Errorf("Cannot get player: %v", err)
		return nil, errorx.Unknown
	}

	if !player.HasChainCredentials() {
		return nil, errorx.New(errorx.PeerplaysAccountMissing, "Player has no peerplays account")
	}

	if player.PeerplaysAccountID == "" {
		accountID, err := d.gateway.GetAccountIDByName(ctx, player.PeerplaysAccountName)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get peerplays account %s: %v", player.PeerplaysAccountName, err)
			return nil, err
		}

		if accountID == "" {
			return nil, errorx.New(errorx.PeerplaysAccountMissing, "Not found peerplays account of player")
		}

		if err := d.userRepo.UpdatePeerplaysAccountID(ctx, player.ID, accountID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update peerplays account id: %v", err)
			return nil, errorx.Unknown
		}

		player.PeerplaysAccountID = accountID
	}

	account, err := client.PlayerChainAccount(
		player.PeerplaysAccountID, player.PeerplaysAccountName, player.PeerplaysMasterPassword)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot derive key of player %s: %v", player.ID, err)
		return nil, errorx.New(errorx.PeerplaysAccountMissing, "Invalid peerplays credentials")
	}

	s := &settlement{
		sale:      sale,
		raffle:    raffle,
		bundle:    bundle,
		player:    player,
		account:   account,
		lotteryID: raffle.ChainLotteryRef,
	}

	if raffle.ProgressiveDrawID.Valid {
		progressive, err := d.raffleRepo.GetByID(ctx, raffle.ProgressiveDrawID.String)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.NotFound, "Not found progressive raffle")
			}

			xcontext.Logger(ctx).Errorf("Cannot get progressive raffle: %v", err)
			return nil, errorx.Unknown
		}

		s.progressiveLotteryID = progressive.ChainLotteryRef
	}

	return s, nil
}

// settleFiat moves the paid amount from the house to the player account.
func (d *purchaseDomain) settleFiat(ctx context.Context, s *settlement) error {
	txType := entity.TransactionCashBuy
	if s.sale.PaymentType == entity.PaymentTypeCard {
		txType = entity.TransactionCardBuy
	}

	cfg := xcontext.Configs(ctx).Peerplays
	return d.transferOnce(ctx, s, entity.StepFiatSettlement, txType,
		d.accounts.Payment, s.account.ID, s.sale.TotalPrice, cfg.SendAssetID,
		entity.SettlementFiatSettled)
}

// fundTickets sends the player enough ticket asset to pay for every chain
// ticket of the sale plus one transfer fee.
func (d *purchaseDomain) fundTickets(ctx context.Context, s *settlement) error {
	cfg := xcontext.Configs(ctx).Peerplays

	fee, err := d.gateway.GetRequiredTransferFee(ctx, cfg.TicketAssetID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get transfer fee of %s: %v", cfg.TicketAssetID, err)
		return err
	}

	amount := cfg.TicketPrice.
		Mul(decimal.NewFromInt(int64(s.bundle.Quantity))).
		Mul(decimal.NewFromInt(int64(s.lotteries()))).
		Add(fee)

	return d.transferOnce(ctx, s, entity.StepTicketFunding, entity.TransactionTicketFunding,
		d.accounts.Payment, s.account.ID, amount, cfg.TicketAssetID,
		entity.SettlementTicketsFunded)
}

func (d *purchaseDomain) purchaseChainTickets(ctx context.Context, s *settlement) error {
	history, err := d.reconciler.Snapshot(ctx, s.account.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get lottery history of %s: %v", s.account.ID, err)
		return err
	}

	if !s.sale.CursorsCaptured {
		s.sale.LotteryCursor = NextCursor(history, s.lotteryID)
		if s.progressiveLotteryID != "" {
			s.sale.ProgressiveCursor = NextCursor(history, s.progressiveLotteryID)
		}

		err := d.saleRepo.UpdateCursors(ctx, s.sale.ID, s.sale.LotteryCursor, s.sale.ProgressiveCursor)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot store lottery cursors: %v", err)
			return errorx.Unknown
		}

		s.sale.CursorsCaptured = true
	}

	var refs []string
	for _, t := range history {
		refs = append(refs, t.TicketRef)
	}

	boundRefs, err := d.entryRepo.FilterBoundTicketRefs(ctx, refs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get bound tickets: %v", err)
		return errorx.Unknown
	}

	bound := map[string]bool{}
	for _, ref := range boundRefs {
		bound[ref] = true
	}

	lotteries := []struct {
		id     string
		cursor uint64
	}{
		{s.lotteryID, s.sale.LotteryCursor},
		{s.progressiveLotteryID, s.sale.ProgressiveCursor},
	}

	for _, lottery := range lotteries {
		if lottery.id == "" {
			continue
		}

		// A previous run may have bought the tickets before failing.
		if unboundCount(history, lottery.id, lottery.cursor, bound) >= s.bundle.Quantity {
			xcontext.Logger(ctx).Infof("Tickets of sale %s on lottery %s are already bought", s.sale.ID, lottery.id)
			continue
		}

		result, err := d.gateway.PurchaseTicket(ctx, lottery.id, s.bundle.Quantity, s.account)
		if err != nil {
			return d.chainError(ctx, s, "purchase tickets", err)
		}

		xcontext.Logger(ctx).Infof("Bought %d tickets of lottery %s for sale %s in tx %s",
			s.bundle.Quantity, lottery.id, s.sale.ID, result.TxRef)
	}

	if err := d.saleRepo.UpdateSettlementState(ctx, s.sale.ID, entity.SettlementChainTicketsPurchased); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update settlement state: %v", err)
		return errorx.Unknown
	}

	return nil
}

// settleEscrow moves the ticket proceeds from the player to the receiver
// account, signed by the player.
func (d *purchaseDomain) settleEscrow(ctx context.Context, s *settlement) error {
	cfg := xcontext.Configs(ctx).Peerplays
	return d.transferOnce(ctx, s, entity.StepEscrowSettlement, entity.TransactionTicketPurchase,
		s.account, d.accounts.Receiver.ID, s.sale.TotalPrice, cfg.SendAssetID,
		entity.SettlementEscrowSettled)
}

func (d *purchaseDomain) issueEntries(ctx context.Context, s *settlement) error {
	after, err := d.reconciler.Snapshot(ctx, s.account.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get lottery history of %s: %v", s.account.ID, err)
		return err
	}

	pairs, err := d.reconciler.Correlate(ctx, after, CorrelateRequest{
		LotteryID:            s.lotteryID,
		ProgressiveLotteryID: s.progressiveLotteryID,
		Quantity:             s.bundle.Quantity,
		LotteryCursor:        s.sale.LotteryCursor,
		ProgressiveCursor:    s.sale.ProgressiveCursor,
	})
	if err != nil {
		if errors.Is(err, ErrTicketsNotSettled) {
			xcontext.Logger(ctx).Warnf("Tickets of sale %s are not settled yet", s.sale.ID)
			return errorx.New(errorx.Unavailable, "Tickets are not settled yet, try again later")
		}

		xcontext.Logger(ctx).Errorf("Cannot correlate tickets of sale %s: %v", s.sale.ID, err)
		return errorx.Unknown
	}

	entries := make([]entity.Entry, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, entity.Entry{
			Base:           entity.Base{ID: uuid.NewString()},
			SaleID:         s.sale.ID,
			ChainTicketRef: p.TicketRef,
			ChainProgressiveTicketRef: sql.NullString{
				Valid:  p.ProgressiveTicketRef != "",
				String: p.ProgressiveTicketRef,
			},
		})
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.entryRepo.CreateMany(ctx, entries); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create entries: %v", err)
		return errorx.Unknown
	}

	if err := d.saleRepo.MarkSuccess(ctx, s.sale.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark sale success: %v", err)
		return errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit entries: %v", err)
		return errorx.Unknown
	}

	return nil
}

// transferOnce broadcasts a transfer unless the ledger already has the step,
// then records it together with the reached settlement state.
func (d *purchaseDomain) transferOnce(
	ctx context.Context,
	s *settlement,
	step entity.LedgerStep,
	txType entity.TransactionType,
	from client.ChainAccount,
	to string,
	amount decimal.Decimal,
	assetID string,
	reached entity.SettlementState,
) error {
	recorded, err := d.ledger.HasRecorded(ctx, s.sale.ID, step)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot check ledger of sale %s: %v", s.sale.ID, err)
		return errorx.Unknown
	}

	if recorded {
		if err := d.saleRepo.UpdateSettlementState(ctx, s.sale.ID, reached); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update settlement state: %v", err)
			return errorx.Unknown
		}

		return nil
	}

	result, err := d.gateway.Transfer(ctx, from, to, amount, assetID)
	if err != nil {
		return d.chainError(ctx, s, string(step), err)
	}

	xcontext.Logger(ctx).Infof("Transferred %s of %s from %s to %s for sale %s at step %s in tx %s",
		amount, assetID, from.ID, to, s.sale.ID, step, result.TxRef)

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	_, err = d.ledger.Record(ctx, LedgerRecord{
		SaleID:   s.sale.ID,
		RaffleID: s.raffle.ID,
		Step:     step,
		Type:     txType,
		From:     result.From,
		To:       result.To,
		Amount:   result.Amount,
		AssetID:  result.AssetID,
		BlockNum: result.BlockNum,
		TxRef:    result.TxRef,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record %s of sale %s (tx %s): %v", step, s.sale.ID, result.TxRef, err)
		return errorx.Unknown
	}

	if err := d.saleRepo.UpdateSettlementState(ctx, s.sale.ID, reached); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update settlement state: %v", err)
		return errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit %s of sale %s (tx %s): %v", step, s.sale.ID, result.TxRef, err)
		return errorx.Unknown
	}

	return nil
}

func (d *purchaseDomain) chainError(ctx context.Context, s *settlement, action string, err error) error {
	xcontext.Logger(ctx).Errorf("Cannot %s of sale %s: %v", action, s.sale.ID, err)
	if client.IsInsufficientBalance(err) {
		return errorx.New(errorx.InsufficientBalance, "Insufficient balance")
	}

	return err
}

func (d *purchaseDomain) saleResult(ctx context.Context, sale *entity.Sale) (*model.PurchaseResult, error) {
	entries, err := d.entryRepo.GetBySaleID(ctx, sale.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get entries of sale: %v", err)
		return nil, errorx.Unknown
	}

	return &model.PurchaseResult{
		Sale:    convertSale(sale),
		Entries: convertEntries(entries),
	}, nil
}

func (d *purchaseDomain) notifyPurchase(ctx context.Context, s *settlement, result *model.PurchaseResult) {
	if !s.player.IsEmailAllowed {
		return
	}

	refs := make([]string, 0, len(result.Entries))
	for _, e := range result.Entries {
		refs = append(refs, e.ChainTicketRef)
	}

	err := d.notifier.NotifyPurchase(ctx, model.PurchaseNotification{
		SaleID:     s.sale.ID,
		PlayerID:   s.player.ID,
		Email:      s.player.Email,
		Firstname:  s.player.Firstname,
		RaffleID:   s.raffle.ID,
		RaffleName: s.raffle.Name,
		TotalPrice: s.sale.TotalPrice,
		TicketRefs: refs,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot notify purchase of sale %s: %v", s.sale.ID, err)
	}
}
