package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	// Player1 has chain credentials and opted into notifications.
	Player1 = &entity.User{
		Base:                    entity.Base{ID: "player1"},
		Email:                   "player1@example.com",
		Firstname:               "Player",
		Lastname:                "One",
		IsEmailAllowed:          true,
		PeerplaysAccountName:    "player-one",
		PeerplaysAccountID:      "1.2.1001",
		PeerplaysMasterPassword: "player1-password",
	}

	Player2 = &entity.User{
		Base:                    entity.Base{ID: "player2"},
		Email:                   "player2@example.com",
		Firstname:               "Player",
		Lastname:                "Two",
		PeerplaysAccountName:    "player-two",
		PeerplaysAccountID:      "1.2.1002",
		PeerplaysMasterPassword: "player2-password",
	}

	// Player3 has credentials but its chain account id is only known by
	// name.
	Player3 = &entity.User{
		Base:                    entity.Base{ID: "player3"},
		Email:                   "player3@example.com",
		PeerplaysAccountName:    "player-three",
		PeerplaysMasterPassword: "player3-password",
	}

	// PlayerWithoutChain was never provisioned on chain.
	PlayerWithoutChain = &entity.User{
		Base:  entity.Base{ID: "player_without_chain"},
		Email: "nochain@example.com",
	}

	OrganizationOwner = &entity.User{
		Base:  entity.Base{ID: "organization_owner"},
		Email: "owner@example.com",
	}

	BeneficiaryUser1 = &entity.User{
		Base:  entity.Base{ID: "beneficiary_user1"},
		Email: "beneficiary1@example.com",
	}

	BeneficiaryUser2 = &entity.User{
		Base:  entity.Base{ID: "beneficiary_user2"},
		Email: "beneficiary2@example.com",
	}

	Organization1 = &entity.Organization{
		Base:   entity.Base{ID: "organization1"},
		Name:   "Organization One",
		UserID: OrganizationOwner.ID,
	}

	Beneficiary1 = &entity.Beneficiary{
		Base:           entity.Base{ID: "beneficiary1"},
		UserID:         BeneficiaryUser1.ID,
		OrganizationID: Organization1.ID,
	}

	Beneficiary2 = &entity.Beneficiary{
		Base:           entity.Base{ID: "beneficiary2"},
		UserID:         BeneficiaryUser2.ID,
		OrganizationID: Organization1.ID,
	}

	// ProgressiveRaffle1 is the jackpot of NormalRaffle1.
	ProgressiveRaffle1 = &entity.Raffle{
		Base:            entity.Base{ID: "progressive_raffle1"},
		OrganizationID:  Organization1.ID,
		Name:            "Progressive One",
		DrawType:        entity.DrawTypeProgressive,
		ChainLotteryRef: "1.3.500",
	}

	NormalRaffle1 = &entity.Raffle{
		Base:                   entity.Base{ID: "normal_raffle1"},
		OrganizationID:         Organization1.ID,
		Name:                   "Normal One",
		DrawType:               entity.DrawTypeNormal,
		ProgressiveDrawID:      sql.NullString{Valid: true, String: "progressive_raffle1"},
		AdminFeePercent:        decimal.NewFromInt(10),
		DonationPercent:        decimal.NewFromInt(5),
		RaffleDrawPercent:      decimal.NewFromInt(50),
		ProgressiveDrawPercent: decimal.NewFromInt(10),
		OrganizationPercent:    decimal.NewFromInt(15),
		BeneficiaryPercent:     decimal.NewFromInt(10),
		ChainLotteryRef:        "1.3.400",
	}

	// NormalRaffle2 has no progressive jackpot.
	NormalRaffle2 = &entity.Raffle{
		Base:                entity.Base{ID: "normal_raffle2"},
		OrganizationID:      Organization1.ID,
		Name:                "Normal Two",
		DrawType:            entity.DrawTypeNormal,
		AdminFeePercent:     decimal.NewFromInt(10),
		DonationPercent:     decimal.NewFromInt(10),
		RaffleDrawPercent:   decimal.NewFromInt(50),
		OrganizationPercent: decimal.NewFromInt(20),
		BeneficiaryPercent:  decimal.NewFromInt(10),
		ChainLotteryRef:     "1.3.401",
	}

	Bundle1 = &entity.Bundle{
		Base:     entity.Base{ID: "bundle1"},
		RaffleID: NormalRaffle1.ID,
		Quantity: 3,
		Price:    decimal.NewFromInt(10),
	}

	Bundle2 = &entity.Bundle{
		Base:     entity.Base{ID: "bundle2"},
		RaffleID: NormalRaffle2.ID,
		Quantity: 2,
		Price:    decimal.NewFromInt(10),
	}

	Bundle3 = &entity.Bundle{
		Base:     entity.Base{ID: "bundle3"},
		RaffleID: NormalRaffle2.ID,
		Quantity: 1,
		Price:    decimal.NewFromInt(5),
	}
)

// CreateFixtureDb inserts the fixtures into the database of ctx. Raffles are
// on sale and their draws are one hour (normal) and one day (progressive)
// ahead.
func CreateFixtureDb(ctx context.Context) {
	now := time.Now()

	InsertUsers(ctx)
	InsertOrganizations(ctx)
	InsertRaffles(ctx, now)
	InsertBundles(ctx)
}

func InsertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()
	for _, u := range []*entity.User{
		Player1, Player2, Player3, PlayerWithoutChain,
		OrganizationOwner, BeneficiaryUser1, BeneficiaryUser2,
	} {
		user := *u
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}
}

func InsertOrganizations(ctx context.Context) {
	organizationRepo := repository.NewOrganizationRepository()

	organization := *Organization1
	if err := organizationRepo.Create(ctx, &organization); err != nil {
		panic(err)
	}

	for _, b := range []*entity.Beneficiary{Beneficiary1, Beneficiary2} {
		beneficiary := *b
		if err := organizationRepo.CreateBeneficiary(ctx, &beneficiary); err != nil {
			panic(err)
		}
	}
}

func InsertRaffles(ctx context.Context, now time.Time) {
	raffleRepo := repository.NewRaffleRepository()

	progressive := *ProgressiveRaffle1
	progressive.StartDatetime = now.Add(-24 * time.Hour)
	progressive.EndDatetime = now.Add(24 * time.Hour)
	progressive.DrawDatetime = now.Add(24 * time.Hour)
	if err := raffleRepo.Create(ctx, &progressive); err != nil {
		panic(err)
	}

	for _, r := range []*entity.Raffle{NormalRaffle1, NormalRaffle2} {
		raffle := *r
		raffle.StartDatetime = now.Add(-time.Hour)
		raffle.EndDatetime = now.Add(time.Hour)
		raffle.DrawDatetime = now.Add(time.Hour)
		if err := raffleRepo.Create(ctx, &raffle); err != nil {
			panic(err)
		}
	}
}

func InsertBundles(ctx context.Context) {
	bundleRepo := repository.NewBundleRepository()
	for _, b := range []*entity.Bundle{Bundle1, Bundle2, Bundle3} {
		bundle := *b
		if err := bundleRepo.Create(ctx, &bundle); err != nil {
			panic(err)
		}
	}
}
