package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rafflelab/backend/internal/middleware"
	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/pkg/authenticator"
	"github.com/rafflelab/backend/pkg/prometheus"
	"github.com/rafflelab/backend/pkg/router"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func (s *srv) startApi(*cli.Context) error {
	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	s.ctx = ctx

	if err := s.loadSettlement(); err != nil {
		return err
	}
	defer s.close()

	cfg := xcontext.Configs(s.ctx)
	go s.startPrometheus(cfg.PrometheusServer.Address())

	server := &http.Server{
		Addr:    cfg.ApiServer.Address(),
		Handler: s.loadRouter().Handler(cfg.ApiServer.AllowedOrigins),
	}

	go func() {
		<-s.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	xcontext.Logger(s.ctx).Infof("Starting api server on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Api server stopped")
	return nil
}

func (s *srv) loadRouter() *router.Router {
	r := router.New(s.ctx)
	r.Use(middleware.Prometheus(), middleware.Logger(s.ctx))

	// Card processor webhook, authenticated by the event signature.
	router.POST(r, "/confirmCardPayment", s.paymentDomain.ConfirmCardPayment)

	engine := authenticator.NewTokenEngine[model.AccessToken](xcontext.Configs(s.ctx).Token)
	operator := r.Group("", middleware.Authenticate(s.ctx, engine, model.RoleOperator, model.RoleAdmin))
	admin := r.Group("", middleware.Authenticate(s.ctx, engine, model.RoleAdmin))

	// Sale API
	router.POST(operator, "/createSale", s.purchaseDomain.CreateSale)
	router.POST(operator, "/purchaseCashSale", s.purchaseDomain.PurchaseCashSale)
	router.GET(operator, "/getSaleEntries", s.purchaseDomain.GetSaleEntries)

	// Raffle API
	router.POST(admin, "/registerRaffle", s.raffleDomain.RegisterRaffle)
	router.POST(admin, "/resolvePendingRaffles", s.resolverDomain.ResolvePendingRaffles)

	return r
}

func (s *srv) startPrometheus(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", prometheus.NewHandler())

	xcontext.Logger(s.ctx).Infof("Starting prometheus server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		xcontext.Logger(s.ctx).Errorf("Prometheus server stopped: %v", err)
	}
}
