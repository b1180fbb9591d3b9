package domain

import (
	"context"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/internal/repository"
	"github.com/rafflelab/backend/pkg/numberutil"
	"github.com/shopspring/decimal"
)

type payoutCalculator struct {
	saleRepo         repository.SaleRepository
	raffleRepo       repository.RaffleRepository
	organizationRepo repository.OrganizationRepository
}

func newPayoutCalculator(
	saleRepo repository.SaleRepository,
	raffleRepo repository.RaffleRepository,
	organizationRepo repository.OrganizationRepository,
) *payoutCalculator {
	return &payoutCalculator{
		saleRepo:         saleRepo,
		raffleRepo:       raffleRepo,
		organizationRepo: organizationRepo,
	}
}

// ComputePayout splits the successful sales of a raffle. A progressive raffle
// only has a jackpot, collected from every normal raffle linked to it.
func (c *payoutCalculator) ComputePayout(ctx context.Context, raffle *entity.Raffle) (*model.Payout, error) {
	if raffle.DrawType == entity.DrawTypeProgressive {
		family, err := c.raffleRepo.GetByProgressiveDrawID(ctx, raffle.ID)
		if err != nil {
			return nil, err
		}

		shares := make([]progressiveShare, 0, len(family))
		for i := range family {
			total, err := c.totalSales(ctx, family[i].ID)
			if err != nil {
				return nil, err
			}

			shares = append(shares, progressiveShare{
				TotalSales: total,
				Percent:    family[i].ProgressiveDrawPercent,
			})
		}

		return computeProgressivePayout(shares), nil
	}

	total, err := c.totalSales(ctx, raffle.ID)
	if err != nil {
		return nil, err
	}

	beneficiaries, err := c.organizationRepo.CountBeneficiaries(ctx, raffle.OrganizationID)
	if err != nil {
		return nil, err
	}

	return computeNormalPayout(raffle, total, beneficiaries), nil
}

func (c *payoutCalculator) totalSales(ctx context.Context, raffleID string) (decimal.Decimal, error) {
	sales, err := c.saleRepo.GetSuccessByRaffleID(ctx, raffleID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.TotalPrice)
	}

	return total, nil
}

func computeNormalPayout(raffle *entity.Raffle, totalSales decimal.Decimal, beneficiaries int64) *model.Payout {
	jackpot := numberutil.Percent(totalSales, raffle.RaffleDrawPercent)
	beneficiary := numberutil.Percent(totalSales, raffle.BeneficiaryPercent)
	organization := numberutil.Percent(totalSales, raffle.OrganizationPercent)
	adminFee := numberutil.Percent(totalSales, raffle.AdminFeePercent)
	donation := numberutil.Percent(totalSales, raffle.DonationPercent)

	each := decimal.Zero
	if beneficiaries > 0 {
		each = beneficiary.Div(decimal.NewFromInt(beneficiaries))
	}

	return &model.Payout{
		TotalSales:            numberutil.RoundCents(totalSales),
		Jackpot:               numberutil.RoundCents(jackpot),
		EachBeneficiaryAmount: numberutil.RoundCents(each),
		BeneficiaryAmount:     numberutil.RoundCents(beneficiary),
		OrganizationAmount:    numberutil.RoundCents(organization),
		AdminFeeAmount:        numberutil.RoundCents(adminFee),
		DonationAmount:        numberutil.RoundCents(donation),
		Donations:             numberutil.RoundCents(decimal.Sum(beneficiary, organization, adminFee, donation)),
	}
}

type progressiveShare struct {
	TotalSales decimal.Decimal
	Percent    decimal.Decimal
}

func computeProgressivePayout(shares []progressiveShare) *model.Payout {
	total := decimal.Zero
	jackpot := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.TotalSales)
		jackpot = jackpot.Add(numberutil.Percent(s.TotalSales, s.Percent))
	}

	return &model.Payout{
		TotalSales:            numberutil.RoundCents(total),
		Jackpot:               numberutil.RoundCents(jackpot),
		EachBeneficiaryAmount: decimal.Zero,
		BeneficiaryAmount:     decimal.Zero,
		OrganizationAmount:    decimal.Zero,
		AdminFeeAmount:        decimal.Zero,
		DonationAmount:        decimal.Zero,
		Donations:             decimal.Zero,
	}
}
