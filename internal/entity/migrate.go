package entity

import (
	"context"

	"github.com/rafflelab/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&Organization{},
		&Beneficiary{},
		&Raffle{},
		&Bundle{},
		&Sale{},
		&Entry{},
		&Transaction{},
		&PaymentEvent{},
		&Migration{},
	)
}
