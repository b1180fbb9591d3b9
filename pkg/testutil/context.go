package testutil

import (
	"context"
	"time"

	"github.com/rafflelab/backend/config"
	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/logger"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	SendAssetID   = "1.3.0"
	TicketAssetID = "1.3.1"
	WebhookSecret = "webhook-secret"
)

var TicketPrice = decimal.NewFromInt(1)

func NewMockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}

	// Every connection to :memory: opens a different database.
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Configs{
		Env: "test",
		Peerplays: config.PeerplaysConfigs{
			PaymentAccountID:  PaymentAccount.ID,
			ReceiverAccountID: ReceiverAccount.ID,
			SendAssetID:       SendAssetID,
			SendAssetScale:    5,
			TicketAssetID:     TicketAssetID,
			TicketAssetScale:  5,
			TicketPrice:       TicketPrice,
		},
		Settlement: config.SettlementConfigs{
			LockBackend: "memory",
			LockTTL:     time.Minute,
		},
		Resolver: config.ResolverConfigs{Interval: time.Minute},
		Webhook:  config.WebhookConfigs{Secret: WebhookSecret},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}
