package domain

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rafflelab/backend/internal/client"
	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/internal/repository"
	"github.com/rafflelab/backend/pkg/enum"
	"github.com/rafflelab/backend/pkg/errorx"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RaffleDomain interface {
	RegisterRaffle(context.Context, *model.RegisterRaffleRequest) (*model.RegisterRaffleResponse, error)
}

type raffleDomain struct {
	raffleRepo       repository.RaffleRepository
	bundleRepo       repository.BundleRepository
	organizationRepo repository.OrganizationRepository
	gateway          client.ChainGateway
	accounts         HouseAccounts
}

func NewRaffleDomain(
	raffleRepo repository.RaffleRepository,
	bundleRepo repository.BundleRepository,
	organizationRepo repository.OrganizationRepository,
	gateway client.ChainGateway,
	accounts HouseAccounts,
) *raffleDomain {
	return &raffleDomain{
		raffleRepo:       raffleRepo,
		bundleRepo:       bundleRepo,
		organizationRepo: organizationRepo,
		gateway:          gateway,
		accounts:         accounts,
	}
}

func (d *raffleDomain) RegisterRaffle(
	ctx context.Context, req *model.RegisterRaffleRequest,
) (*model.RegisterRaffleResponse, error) {
	drawType, err := enum.ToEnum[entity.DrawType](req.DrawType)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid draw type: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid draw type")
	}

	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Name is required")
	}

	if !req.StartDatetime.Before(req.EndDatetime) {
		return nil, errorx.New(errorx.BadRequest, "Start datetime must be before end datetime")
	}

	if req.DrawDatetime.Before(req.EndDatetime) {
		return nil, errorx.New(errorx.BadRequest, "Draw datetime must not be before end datetime")
	}

	raffle := &entity.Raffle{
		Base:                   entity.Base{ID: uuid.NewString()},
		OrganizationID:         req.OrganizationID,
		Name:                   req.Name,
		Slug:                   req.Slug,
		Description:            req.Description,
		StartDatetime:          req.StartDatetime,
		EndDatetime:            req.EndDatetime,
		DrawDatetime:           req.DrawDatetime,
		DrawType:               drawType,
		AdminFeePercent:        req.AdminFeePercent,
		DonationPercent:        req.DonationPercent,
		RaffleDrawPercent:      req.RaffleDrawPercent,
		ProgressiveDrawPercent: req.ProgressiveDrawPercent,
		OrganizationPercent:    req.OrganizationPercent,
		BeneficiaryPercent:     req.BeneficiaryPercent,
		ChainLotteryRef:        req.ChainLotteryRef,
	}

	if err := validatePercents(raffle); err != nil {
		return nil, err
	}

	if raffle.ProgressiveDrawPercent.IsPositive() && req.ProgressiveDrawID == "" {
		return nil, errorx.New(errorx.BadRequest, "Progressive draw percentage requires a progressive raffle")
	}

	if _, err := d.organizationRepo.GetByID(ctx, req.OrganizationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found organization")
		}

		xcontext.Logger(ctx).Errorf("Cannot get organization: %v", err)
		return nil, errorx.Unknown
	}

	if req.ProgressiveDrawID != "" {
		if drawType != entity.DrawTypeNormal {
			return nil, errorx.New(errorx.BadRequest, "Only normal raffles can link a progressive draw")
		}

		progressive, err := d.raffleRepo.GetByID(ctx, req.ProgressiveDrawID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.NotFound, "Not found progressive raffle")
			}

			xcontext.Logger(ctx).Errorf("Cannot get progressive raffle: %v", err)
			return nil, errorx.Unknown
		}

		if progressive.DrawType != entity.DrawTypeProgressive {
			return nil, errorx.New(errorx.BadRequest, "Linked raffle is not progressive")
		}

		if progressive.EndDatetime.Before(req.DrawDatetime) {
			return nil, errorx.New(errorx.BadRequest,
				"Progressive raffle must end at or after the draw of this raffle")
		}

		raffle.ProgressiveDrawID = sql.NullString{Valid: true, String: progressive.ID}
	}

	for i, b := range req.Bundles {
		if b.Quantity <= 0 {
			return nil, errorx.New(errorx.BadRequest, "Quantity of bundle %d must be positive", i+1)
		}

		if b.Price.Sign() <= 0 {
			return nil, errorx.New(errorx.BadRequest, "Price of bundle %d must be positive", i+1)
		}
	}

	if raffle.ChainLotteryRef == "" {
		lottery, err := d.gateway.CreateLottery(ctx, client.CreateLotteryRequest{
			Issuer:      d.accounts.Payment,
			Name:        raffle.Name,
			Description: raffle.Description,
			EndDate:     raffle.DrawDatetime,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create lottery of raffle %s: %v", raffle.Name, err)
			if client.IsInsufficientBalance(err) {
				return nil, errorx.New(errorx.InsufficientBalance, "Insufficient balance")
			}

			return nil, errorx.Unknown
		}

		xcontext.Logger(ctx).Infof("Created lottery %s for raffle %s in block %d",
			lottery.LotteryID, raffle.ID, lottery.BlockNum)
		raffle.ChainLotteryRef = lottery.LotteryID
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.raffleRepo.Create(ctx, raffle); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create raffle: %v", err)
		return nil, errorx.Unknown
	}

	bundleIDs := []string{}
	for _, b := range req.Bundles {
		bundle := &entity.Bundle{
			Base:     entity.Base{ID: uuid.NewString()},
			RaffleID: raffle.ID,
			Quantity: b.Quantity,
			Price:    b.Price,
		}

		if err := d.bundleRepo.Create(ctx, bundle); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create bundle: %v", err)
			return nil, errorx.Unknown
		}

		bundleIDs = append(bundleIDs, bundle.ID)
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit raffle: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RegisterRaffleResponse{
		ID:              raffle.ID,
		ChainLotteryRef: raffle.ChainLotteryRef,
		BundleIDs:       bundleIDs,
	}, nil
}

var hundredPercent = decimal.NewFromInt(100)

func validatePercents(raffle *entity.Raffle) error {
	percents := []decimal.Decimal{
		raffle.AdminFeePercent,
		raffle.DonationPercent,
		raffle.RaffleDrawPercent,
		raffle.ProgressiveDrawPercent,
		raffle.OrganizationPercent,
		raffle.BeneficiaryPercent,
	}

	for _, p := range percents {
		if p.IsNegative() {
			return errorx.New(errorx.BadRequest, "Percentages must not be negative")
		}
	}

	if raffle.DrawType == entity.DrawTypeProgressive {
		if !raffle.PercentSum().IsZero() {
			return errorx.New(errorx.BadRequest, "Percentages of a progressive raffle must be zero")
		}

		return nil
	}

	if !raffle.PercentSum().Equal(hundredPercent) {
		return errorx.New(errorx.BadRequest, "Percentages of a normal raffle must sum to 100")
	}

	return nil
}
