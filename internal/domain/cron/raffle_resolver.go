package cron

import (
	"context"
	"time"

	"github.com/rafflelab/backend/internal/domain"
	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/pkg/xcontext"
)

const defaultResolverInterval = time.Minute

// RaffleResolverCronJob resolves the raffles whose draw has passed and
// retries unsettled payouts.
type RaffleResolverCronJob struct {
	resolverDomain domain.ResolverDomain
	interval       time.Duration
}

func NewRaffleResolverCronJob(resolverDomain domain.ResolverDomain, interval time.Duration) *RaffleResolverCronJob {
	if interval <= 0 {
		interval = defaultResolverInterval
	}

	return &RaffleResolverCronJob{resolverDomain: resolverDomain, interval: interval}
}

func (job *RaffleResolverCronJob) Do(ctx context.Context) {
	resp, err := job.resolverDomain.ResolvePendingRaffles(ctx, &model.ResolvePendingRafflesRequest{})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot resolve pending raffles: %v", err)
		return
	}

	if !resp.Completed {
		xcontext.Logger(ctx).Warnf("Some raffles are not fully resolved, retry in %s", job.interval)
	}
}

func (job *RaffleResolverCronJob) RunNow() bool {
	return true
}

func (job *RaffleResolverCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
