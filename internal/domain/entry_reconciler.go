package domain

import (
	"context"
	"errors"
	"sort"

	"github.com/rafflelab/backend/internal/client"
	"github.com/rafflelab/backend/internal/repository"
)

// ErrTicketsNotSettled means the lottery history does not show every ticket
// of the purchase yet. The purchase can be retried later.
var ErrTicketsNotSettled = errors.New("purchased tickets are not in the lottery history yet")

// TicketPair is the chain tickets of one entry. ProgressiveTicketRef is empty
// when the raffle has no progressive jackpot.
type TicketPair struct {
	TicketRef            string
	ProgressiveTicketRef string
}

type CorrelateRequest struct {
	LotteryID            string
	ProgressiveLotteryID string
	Quantity             int

	// Tickets whose sequence is below the cursor existed before the purchase.
	LotteryCursor     uint64
	ProgressiveCursor uint64
}

// EntryReconciler maps tickets freshly bought on chain back to the purchase
// which bought them.
type EntryReconciler interface {
	Snapshot(ctx context.Context, accountID string) ([]client.LotteryTicket, error)
	Correlate(ctx context.Context, after []client.LotteryTicket, req CorrelateRequest) ([]TicketPair, error)
}

type entryReconciler struct {
	gateway   client.ChainGateway
	entryRepo repository.EntryRepository
}

func NewEntryReconciler(gateway client.ChainGateway, entryRepo repository.EntryRepository) *entryReconciler {
	return &entryReconciler{gateway: gateway, entryRepo: entryRepo}
}

func (r *entryReconciler) Snapshot(ctx context.Context, accountID string) ([]client.LotteryTicket, error) {
	return r.gateway.GetAccountLotteryHistory(ctx, accountID)
}

// Correlate picks, for each lottery, the newest Quantity tickets after the
// cursor which are not bound to any entry yet, and pairs them newest first.
func (r *entryReconciler) Correlate(
	ctx context.Context, after []client.LotteryTicket, req CorrelateRequest,
) ([]TicketPair, error) {
	var candidates []string
	for _, t := range after {
		candidates = append(candidates, t.TicketRef)
	}

	boundRefs, err := r.entryRepo.FilterBoundTicketRefs(ctx, candidates)
	if err != nil {
		return nil, err
	}

	bound := map[string]bool{}
	for _, ref := range boundRefs {
		bound[ref] = true
	}

	normal := newestTickets(after, req.LotteryID, req.LotteryCursor, bound, req.Quantity)
	if len(normal) < req.Quantity {
		return nil, ErrTicketsNotSettled
	}

	var progressive []client.LotteryTicket
	if req.ProgressiveLotteryID != "" {
		progressive = newestTickets(after, req.ProgressiveLotteryID, req.ProgressiveCursor, bound, req.Quantity)
		if len(progressive) < req.Quantity {
			return nil, ErrTicketsNotSettled
		}
	}

	pairs := make([]TicketPair, 0, req.Quantity)
	for i := range normal {
		pair := TicketPair{TicketRef: normal[i].TicketRef}
		if progressive != nil {
			pair.ProgressiveTicketRef = progressive[i].TicketRef
		}

		pairs = append(pairs, pair)
	}

	return pairs, nil
}

// NextCursor returns the first history sequence after every ticket of the
// lottery in tickets.
func NextCursor(tickets []client.LotteryTicket, lotteryID string) uint64 {
	var cursor uint64
	for _, t := range tickets {
		if t.LotteryID == lotteryID && t.Sequence >= cursor {
			cursor = t.Sequence + 1
		}
	}

	return cursor
}

// unboundCount counts the tickets of the lottery at or after cursor which no
// entry owns yet.
func unboundCount(tickets []client.LotteryTicket, lotteryID string, cursor uint64, bound map[string]bool) int {
	count := 0
	for _, t := range tickets {
		if t.LotteryID == lotteryID && t.Sequence >= cursor && !bound[t.TicketRef] {
			count++
		}
	}

	return count
}

func newestTickets(
	tickets []client.LotteryTicket, lotteryID string, cursor uint64, bound map[string]bool, n int,
) []client.LotteryTicket {
	var filtered []client.LotteryTicket
	for _, t := range tickets {
		if t.LotteryID == lotteryID && t.Sequence >= cursor && !bound[t.TicketRef] {
			filtered = append(filtered, t)
		}
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].After(filtered[j]) })
	if len(filtered) > n {
		filtered = filtered[:n]
	}

	return filtered
}
