package main

import (
	"context"
	"fmt"

	"github.com/rafflelab/backend/config"
	"github.com/rafflelab/backend/internal/client"
	"github.com/rafflelab/backend/internal/domain"
	"github.com/rafflelab/backend/internal/repository"
	"github.com/rafflelab/backend/pkg/kafka"
	"github.com/rafflelab/backend/pkg/logger"
	"github.com/rafflelab/backend/pkg/peerplays"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/rafflelab/backend/pkg/xredis"
	"github.com/rafflelab/backend/pkg/xsync"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app *cli.App
	ctx context.Context

	peerplaysClient *peerplays.Client
	gateway         client.ChainGateway
	notifier        client.Notifier
	locker          xsync.Locker
	accounts        domain.HouseAccounts
	closers         []func()

	userRepo         repository.UserRepository
	organizationRepo repository.OrganizationRepository
	raffleRepo       repository.RaffleRepository
	bundleRepo       repository.BundleRepository
	saleRepo         repository.SaleRepository
	entryRepo        repository.EntryRepository
	transactionRepo  repository.TransactionRepository
	paymentEventRepo repository.PaymentEventRepository

	ledger         domain.SettlementLedger
	purchaseDomain domain.PurchaseDomain
	paymentDomain  domain.PaymentDomain
	resolverDomain domain.ResolverDomain
	raffleDomain   domain.RaffleDomain
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithConfigs(cctx.Context, cfg)
	s.loadLogger()
	return nil
}

func (s *srv) loadLogger() {
	cfg := xcontext.Configs(s.ctx).Log
	level := logger.LevelFromString(cfg.Level)

	var l logger.Logger
	switch cfg.Backend {
	case "zap":
		zapLogger := logger.NewZapLogger(logger.ZapConfigs{
			Level:      level,
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		})
		s.closers = append(s.closers, func() { _ = zapLogger.Sync() })
		l = zapLogger
	default:
		l = logger.NewLogger(level)
	}

	s.ctx = xcontext.WithLogger(s.ctx, l)
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.ConnectionString())
	case "sqlite":
		dialector = sqlite.Open(cfg.ConnectionString())
	default:
		dialector = mysql.New(mysql.Config{
			DSN:                       cfg.ConnectionString(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		panic(err)
	}

	return db
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Error
	}
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.organizationRepo = repository.NewOrganizationRepository()
	s.raffleRepo = repository.NewRaffleRepository()
	s.bundleRepo = repository.NewBundleRepository()
	s.saleRepo = repository.NewSaleRepository()
	s.entryRepo = repository.NewEntryRepository()
	s.transactionRepo = repository.NewTransactionRepository()
	s.paymentEventRepo = repository.NewPaymentEventRepository()
}

func (s *srv) loadLocker() error {
	cfg := xcontext.Configs(s.ctx).Settlement
	switch cfg.LockBackend {
	case "redis":
		redisClient, err := xredis.NewClient(s.ctx)
		if err != nil {
			return err
		}

		s.closers = append(s.closers, func() { _ = redisClient.Close() })
		s.locker = xsync.NewRedisLocker(redisClient, cfg.LockTTL)
	case "memory", "":
		s.locker = xsync.NewMemoryLocker()
	default:
		return fmt.Errorf("invalid lock backend %s", cfg.LockBackend)
	}

	return nil
}

func (s *srv) loadChain() error {
	cfg := xcontext.Configs(s.ctx).Peerplays

	var err error
	s.peerplaysClient, err = peerplays.Dial(s.ctx, peerplays.ClientConfigs{
		Endpoints:           cfg.Endpoints,
		HealthCheckInterval: cfg.HealthCheckInterval,
		MaxRetryTimeout:     cfg.MaxRetryTimeout,
	})
	if err != nil {
		return err
	}
	s.closers = append(s.closers, s.peerplaysClient.Close)

	gateway, err := client.NewPeerplaysGateway(s.ctx, s.peerplaysClient, cfg.ChainID, cfg.TicketAssetID, cfg.TicketPrice)
	if err != nil {
		return err
	}

	gateway.SetAssetPrecision(cfg.SendAssetID, cfg.SendAssetScale)
	gateway.SetAssetPrecision(cfg.TicketAssetID, cfg.TicketAssetScale)
	gateway.SetMaxTicketSupply(cfg.MaxTicketSupply)
	s.gateway = gateway

	payment, err := client.NewChainAccount(cfg.PaymentAccountID, cfg.PaymentAccountWIF)
	if err != nil {
		return fmt.Errorf("invalid payment account key: %w", err)
	}

	receiver, err := client.NewChainAccount(cfg.ReceiverAccountID, cfg.ReceiverAccountWIF)
	if err != nil {
		return fmt.Errorf("invalid receiver account key: %w", err)
	}

	xcontext.Logger(s.ctx).Infof("Payment account %s signs with %s", payment.ID,
		payment.Key.PublicKey().String(cfg.AddressPrefix))
	xcontext.Logger(s.ctx).Infof("Receiver account %s signs with %s", receiver.ID,
		receiver.Key.PublicKey().String(cfg.AddressPrefix))

	s.accounts = domain.HouseAccounts{Payment: payment, Receiver: receiver}
	return nil
}

func (s *srv) loadNotifier() error {
	cfg := xcontext.Configs(s.ctx).Kafka
	if !cfg.Enabled() {
		xcontext.Logger(s.ctx).Warnf("Kafka is not configured, notifications are dropped")
		s.notifier = client.NewNoopNotifier()
		return nil
	}

	publisher, err := kafka.NewPublisher("raffle-settlement", []string{cfg.Addr})
	if err != nil {
		return err
	}

	s.closers = append(s.closers, func() { _ = publisher.Stop(s.ctx) })
	s.notifier = client.NewPubsubNotifier(publisher, cfg.PurchaseConfirmTopic, cfg.WinnerTopic)
	return nil
}

func (s *srv) loadDomains() {
	s.ledger = domain.NewSettlementLedger(s.transactionRepo)
	s.purchaseDomain = domain.NewPurchaseDomain(
		s.saleRepo, s.raffleRepo, s.bundleRepo, s.userRepo, s.entryRepo, s.paymentEventRepo,
		s.ledger, domain.NewEntryReconciler(s.gateway, s.entryRepo),
		s.gateway, s.notifier, s.locker, s.accounts,
	)
	s.paymentDomain = domain.NewPaymentDomain(s.paymentEventRepo, s.saleRepo, s.entryRepo, s.purchaseDomain)
	s.resolverDomain = domain.NewResolverDomain(
		s.raffleRepo, s.userRepo, s.entryRepo, s.saleRepo, s.organizationRepo,
		s.ledger, s.gateway, s.notifier, s.locker, s.accounts,
	)
	s.raffleDomain = domain.NewRaffleDomain(
		s.raffleRepo, s.bundleRepo, s.organizationRepo, s.gateway, s.accounts)
}

// loadSettlement wires everything the settlement domains need.
func (s *srv) loadSettlement() error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.loadRepos()

	if err := s.loadLocker(); err != nil {
		return err
	}

	if err := s.loadChain(); err != nil {
		return err
	}

	if err := s.loadNotifier(); err != nil {
		return err
	}

	s.loadDomains()
	return nil
}

func (s *srv) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
