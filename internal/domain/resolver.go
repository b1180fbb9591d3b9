package domain

import (
	"context"
	"errors"
	"time"

	"github.com/rafflelab/backend/internal/client"
	"github.com/rafflelab/backend/internal/common"
	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/internal/repository"
	"github.com/rafflelab/backend/pkg/crypto"
	"github.com/rafflelab/backend/pkg/errorx"
	"github.com/rafflelab/backend/pkg/numberutil"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/rafflelab/backend/pkg/xsync"
	"gorm.io/gorm"
)

const (
	resolutionResolved       = "resolved"
	resolutionNoWinner       = "no_winner"
	resolutionUnmappedWinner = "unmapped_winner"
	resolutionNoEntries      = "no_entries"
	resolutionFailed         = "failed"

	fallbackNoTicket       = "no_ticket"
	fallbackTicketNotOwned = "ticket_not_owned"
)

type ResolverDomain interface {
	// ResolvePendingRaffles picks the winner of every raffle whose draw has
	// passed and pays it out. Raffles without usable chain data are left for
	// the next run.
	ResolvePendingRaffles(
		context.Context, *model.ResolvePendingRafflesRequest,
	) (*model.ResolvePendingRafflesResponse, error)

	// SettlePendingPayouts retries the payout transfers of resolved raffles
	// which have not been fully paid out.
	SettlePendingPayouts(context.Context) error
}

type resolverDomain struct {
	raffleRepo repository.RaffleRepository
	userRepo   repository.UserRepository
	entryRepo  repository.EntryRepository
	ledger     SettlementLedger
	payout     *payoutCalculator
	gateway    client.ChainGateway
	notifier   client.Notifier
	locker     xsync.Locker
	accounts   HouseAccounts

	now      func() time.Time
	randIntn func(int) int
}

func NewResolverDomain(
	raffleRepo repository.RaffleRepository,
	userRepo repository.UserRepository,
	entryRepo repository.EntryRepository,
	saleRepo repository.SaleRepository,
	organizationRepo repository.OrganizationRepository,
	ledger SettlementLedger,
	gateway client.ChainGateway,
	notifier client.Notifier,
	locker xsync.Locker,
	accounts HouseAccounts,
) *resolverDomain {
	return &resolverDomain{
		raffleRepo: raffleRepo,
		userRepo:   userRepo,
		entryRepo:  entryRepo,
		ledger:     ledger,
		payout:     newPayoutCalculator(saleRepo, raffleRepo, organizationRepo),
		gateway:    gateway,
		notifier:   notifier,
		locker:     locker,
		accounts:   accounts,
		now:        time.Now,
		randIntn:   crypto.RandIntn,
	}
}

func (d *resolverDomain) ResolvePendingRaffles(
	ctx context.Context, req *model.ResolvePendingRafflesRequest,
) (*model.ResolvePendingRafflesResponse, error) {
	now := d.now()
	raffles, err := d.raffleRepo.GetPendingDraw(ctx, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pending raffles: %v", err)
		return nil, errorx.Unknown
	}

	completed := true
	if len(raffles) > 0 {
		winners, err := d.gateway.GetGlobalLotteryWinners(ctx, 0)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get lottery winners: %v", err)
			return nil, err
		}

		byLottery := map[string]client.LotteryWinner{}
		for _, w := range winners {
			if prev, ok := byLottery[w.LotteryID]; !ok || w.Sequence > prev.Sequence {
				byLottery[w.LotteryID] = w
			}
		}

		for i := range raffles {
			winner, ok := byLottery[raffles[i].ChainLotteryRef]
			if !ok {
				common.IncCounter(common.RaffleResolution, resolutionNoWinner)
				continue
			}

			if err := d.resolveRaffle(ctx, &raffles[i], winner, now); err != nil {
				common.IncCounter(common.RaffleResolution, resolutionFailed)
				xcontext.Logger(ctx).Errorf("Cannot resolve raffle %s: %v", raffles[i].ID, err)
				completed = false
			}
		}
	}

	if err := d.SettlePendingPayouts(ctx); err != nil {
		completed = false
	}

	return &model.ResolvePendingRafflesResponse{Completed: completed}, nil
}

func (d *resolverDomain) resolveRaffle(
	ctx context.Context, raffle *entity.Raffle, winner client.LotteryWinner, now time.Time,
) error {
	player, err := d.userRepo.GetByPeerplaysAccountID(ctx, winner.WinnerAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.IncCounter(common.RaffleResolution, resolutionUnmappedWinner)
			xcontext.Logger(ctx).Warnf("Winner account %s of raffle %s has no local player",
				winner.WinnerAccountID, raffle.ID)
			return nil
		}

		return err
	}

	familyIDs := []string{raffle.ID}
	if raffle.DrawType == entity.DrawTypeProgressive {
		family, err := d.raffleRepo.GetByProgressiveDrawID(ctx, raffle.ID)
		if err != nil {
			return err
		}

		familyIDs = familyIDs[:0]
		for _, r := range family {
			familyIDs = append(familyIDs, r.ID)
		}
	}

	var entries []entity.Entry
	if len(familyIDs) > 0 {
		entries, err = d.entryRepo.GetByPlayerAndRaffles(ctx, player.ID, familyIDs)
		if err != nil {
			return err
		}
	}

	if len(entries) == 0 {
		common.IncCounter(common.RaffleResolution, resolutionNoEntries)
		xcontext.Logger(ctx).Warnf("Winner %s of raffle %s has no local entries", player.ID, raffle.ID)
		return nil
	}

	entry := d.winningEntry(ctx, raffle, winner, entries)

	err = d.raffleRepo.UpdateWinner(ctx, raffle.ID, player.ID, entry.ID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Infof("Raffle %s was resolved by another run", raffle.ID)
			return nil
		}

		return err
	}

	common.IncCounter(common.RaffleResolution, resolutionResolved)
	xcontext.Logger(ctx).Infof("Raffle %s is won by %s with entry %s", raffle.ID, player.ID, entry.ID)

	d.notifyWinner(ctx, raffle, player, entry)
	return nil
}

// winningEntry looks up the chain winning ticket among the player's entries.
// When the chain has no explicit ticket or the ticket is not one of them, an
// entry of the player is picked at random.
func (d *resolverDomain) winningEntry(
	ctx context.Context, raffle *entity.Raffle, winner client.LotteryWinner, entries []entity.Entry,
) *entity.Entry {
	reason := fallbackNoTicket
	if !client.IsZeroTicketRef(winner.WinningTicketRef) {
		for i := range entries {
			ref := entries[i].ChainTicketRef
			if raffle.DrawType == entity.DrawTypeProgressive {
				ref = entries[i].ChainProgressiveTicketRef.String
			}

			if ref == winner.WinningTicketRef {
				return &entries[i]
			}
		}

		reason = fallbackTicketNotOwned
	}

	common.IncCounter(common.WinningEntryFallbackTotal, reason)
	xcontext.Logger(ctx).Warnf("Pick a random winning entry of raffle %s (%s, chain ticket %q)",
		raffle.ID, reason, winner.WinningTicketRef)

	return &entries[d.randIntn(len(entries))]
}

func (d *resolverDomain) SettlePendingPayouts(ctx context.Context) error {
	raffles, err := d.raffleRepo.GetUnsettledPayouts(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get unsettled payouts: %v", err)
		return err
	}

	var lastErr error
	for i := range raffles {
		if err := d.settlePayout(ctx, &raffles[i]); err != nil {
			common.IncCounter(common.SettlementStepFailure, "payout")
			xcontext.Logger(ctx).Errorf("Cannot settle payout of raffle %s: %v", raffles[i].ID, err)
			lastErr = err
		}
	}

	return lastErr
}

func (d *resolverDomain) settlePayout(ctx context.Context, raffle *entity.Raffle) error {
	unlock, err := d.locker.Lock(ctx, common.LockKeyRaffleResolution(raffle.ID))
	if err != nil {
		return err
	}
	defer unlock()

	winner, err := d.userRepo.GetByID(ctx, raffle.WinnerID.String)
	if err != nil {
		return err
	}

	payout, err := d.payout.ComputePayout(ctx, raffle)
	if err != nil {
		return err
	}

	sendAssetID := xcontext.Configs(ctx).Peerplays.SendAssetID

	if numberutil.IsPositive(payout.Jackpot) {
		recorded, err := d.ledger.HasRecordedForRaffle(ctx, raffle.ID, entity.StepWinnings)
		if err != nil {
			return err
		}

		if !recorded {
			if err := d.payWinnings(ctx, raffle, winner, payout, sendAssetID); err != nil {
				return err
			}
		}
	}

	if raffle.DrawType == entity.DrawTypeNormal && numberutil.IsPositive(payout.Donations) {
		recorded, err := d.ledger.HasRecordedForRaffle(ctx, raffle.ID, entity.StepDonations)
		if err != nil {
			return err
		}

		if !recorded {
			result, err := d.gateway.Transfer(ctx, d.accounts.Receiver, d.accounts.Payment.ID,
				payout.Donations, sendAssetID)
			if err != nil {
				return err
			}

			_, err = d.ledger.Record(ctx, LedgerRecord{
				RaffleID: raffle.ID,
				Step:     entity.StepDonations,
				Type:     entity.TransactionDonations,
				From:     result.From,
				To:       result.To,
				Amount:   result.Amount,
				AssetID:  result.AssetID,
				BlockNum: result.BlockNum,
				TxRef:    result.TxRef,
			})
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot record donations of raffle %s (tx %s): %v",
					raffle.ID, result.TxRef, err)
				return err
			}

			xcontext.Logger(ctx).Infof("Transferred donations %s of raffle %s in tx %s",
				payout.Donations, raffle.ID, result.TxRef)
		}
	}

	if err := d.raffleRepo.MarkPayoutSettled(ctx, raffle.ID); err != nil {
		return err
	}

	return nil
}

// payWinnings sends the jackpot to the winner and sweeps it straight back to
// the house. Only the first transfer is recorded.
func (d *resolverDomain) payWinnings(
	ctx context.Context, raffle *entity.Raffle, winner *entity.User, payout *model.Payout, assetID string,
) error {
	account, err := client.PlayerChainAccount(
		winner.PeerplaysAccountID, winner.PeerplaysAccountName, winner.PeerplaysMasterPassword)
	if err != nil {
		return err
	}

	result, err := d.gateway.Transfer(ctx, d.accounts.Receiver, account.ID, payout.Jackpot, assetID)
	if err != nil {
		return err
	}

	_, err = d.ledger.Record(ctx, LedgerRecord{
		RaffleID: raffle.ID,
		Step:     entity.StepWinnings,
		Type:     entity.TransactionWinnings,
		From:     result.From,
		To:       result.To,
		Amount:   result.Amount,
		AssetID:  result.AssetID,
		BlockNum: result.BlockNum,
		TxRef:    result.TxRef,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record winnings of raffle %s (tx %s): %v", raffle.ID, result.TxRef, err)
		return err
	}

	xcontext.Logger(ctx).Infof("Transferred winnings %s of raffle %s to %s in tx %s",
		payout.Jackpot, raffle.ID, account.ID, result.TxRef)

	sweep, err := d.gateway.Transfer(ctx, account, d.accounts.Payment.ID, payout.Jackpot, assetID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot sweep winnings of raffle %s from %s: %v", raffle.ID, account.ID, err)
		return err
	}

	xcontext.Logger(ctx).Infof("Swept winnings of raffle %s back to house in tx %s", raffle.ID, sweep.TxRef)
	return nil
}

func (d *resolverDomain) notifyWinner(
	ctx context.Context, raffle *entity.Raffle, winner *entity.User, entry *entity.Entry,
) {
	if !winner.IsEmailAllowed {
		return
	}

	payout, err := d.payout.ComputePayout(ctx, raffle)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot compute payout of raffle %s for notification: %v", raffle.ID, err)
		return
	}

	err = d.notifier.NotifyWinner(ctx, model.WinnerNotification{
		RaffleID:       raffle.ID,
		RaffleName:     raffle.Name,
		WinnerID:       winner.ID,
		Email:          winner.Email,
		Firstname:      winner.Firstname,
		WinningEntryID: entry.ID,
		Jackpot:        payout.Jackpot,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot notify winner of raffle %s: %v", raffle.ID, err)
	}
}
