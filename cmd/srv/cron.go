package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rafflelab/backend/internal/domain/cron"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	s.ctx = ctx

	if err := s.loadSettlement(); err != nil {
		return err
	}
	defer s.close()

	go s.startPrometheus(xcontext.Configs(s.ctx).PrometheusServer.Address())

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Start(
		s.ctx,
		cron.NewRaffleResolverCronJob(s.resolverDomain, xcontext.Configs(s.ctx).Resolver.Interval),
	)

	return nil
}
