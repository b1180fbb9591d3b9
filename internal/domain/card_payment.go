package domain

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/internal/repository"
	"github.com/rafflelab/backend/pkg/crypto"
	"github.com/rafflelab/backend/pkg/errorx"
	"github.com/rafflelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

const (
	PaymentEventSucceeded = "succeeded"
	PaymentEventCanceled  = "canceled"
)

type PaymentDomain interface {
	ConfirmCardPayment(context.Context, *model.ConfirmCardPaymentRequest) (*model.ConfirmCardPaymentResponse, error)
}

type paymentDomain struct {
	paymentEventRepo repository.PaymentEventRepository
	saleRepo         repository.SaleRepository
	entryRepo        repository.EntryRepository
	purchaseDomain   PurchaseDomain
}

func NewPaymentDomain(
	paymentEventRepo repository.PaymentEventRepository,
	saleRepo repository.SaleRepository,
	entryRepo repository.EntryRepository,
	purchaseDomain PurchaseDomain,
) *paymentDomain {
	return &paymentDomain{
		paymentEventRepo: paymentEventRepo,
		saleRepo:         saleRepo,
		entryRepo:        entryRepo,
		purchaseDomain:   purchaseDomain,
	}
}

// SignPaymentEvent returns the signature a payment event must carry under the
// shared webhook secret.
func SignPaymentEvent(secret string, req *model.ConfirmCardPaymentRequest) string {
	data := strings.Join([]string{req.Provider, req.EventID, req.ExternalPaymentRef, req.Status}, "|")
	return crypto.HMAC(sha256.New, []byte(data), []byte(secret))
}

func (d *paymentDomain) ConfirmCardPayment(
	ctx context.Context, req *model.ConfirmCardPaymentRequest,
) (*model.ConfirmCardPaymentResponse, error) {
	secret := xcontext.Configs(ctx).Webhook.Secret
	if secret == "" || !crypto.EqualHMAC(req.Signature, SignPaymentEvent(secret, req)) {
		return nil, errorx.New(errorx.Unauthenticated, "Invalid payment event signature")
	}

	if req.Provider == "" || req.EventID == "" || req.ExternalPaymentRef == "" {
		return nil, errorx.New(errorx.BadRequest, "Payment event requires provider, event id and payment ref")
	}

	if req.Status != PaymentEventSucceeded && req.Status != PaymentEventCanceled {
		return nil, errorx.New(errorx.BadRequest, "Invalid payment event status")
	}

	sale, err := d.saleRepo.GetByExternalPaymentRef(ctx, req.ExternalPaymentRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found sale")
		}

		xcontext.Logger(ctx).Errorf("Cannot get sale by payment ref: %v", err)
		return nil, errorx.Unknown
	}

	if sale.PaymentType != entity.PaymentTypeCard {
		return nil, errorx.New(errorx.BadRequest, "Sale is not paid by card")
	}

	duplicated := false
	err = d.paymentEventRepo.Create(ctx, &entity.PaymentEvent{
		Base:               entity.Base{ID: uuid.NewString()},
		Provider:           req.Provider,
		EventID:            req.EventID,
		ExternalPaymentRef: req.ExternalPaymentRef,
		Status:             req.Status,
	})
	if err != nil {
		if !errors.Is(err, repository.ErrDuplicated) {
			xcontext.Logger(ctx).Errorf("Cannot create payment event: %v", err)
			return nil, errorx.Unknown
		}

		xcontext.Logger(ctx).Infof("Payment event %s of %s is duplicated", req.EventID, req.Provider)
		duplicated = true
	}

	if req.Status == PaymentEventCanceled {
		if err := d.saleRepo.Cancel(ctx, sale.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot cancel sale: %v", err)
			return nil, errorx.Unknown
		}

		sale, err = d.saleRepo.GetByID(ctx, sale.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get sale: %v", err)
			return nil, errorx.Unknown
		}

		if sale.PaymentStatus != entity.PaymentStatusSuccess && sale.PaymentStatus != entity.PaymentStatusCancel {
			xcontext.Logger(ctx).Warnf("Cannot cancel sale %s in settlement state %s", sale.ID, sale.SettlementState)
			return nil, errorx.New(errorx.BadRequest, "Sale settlement has already started")
		}

		entries, err := d.entryRepo.GetBySaleID(ctx, sale.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get entries of sale: %v", err)
			return nil, errorx.Unknown
		}

		return &model.ConfirmCardPaymentResponse{
			Duplicated: duplicated,
			Sale:       convertSale(sale),
			Entries:    convertEntries(entries),
		}, nil
	}

	result, err := d.purchaseDomain.ProcessPurchase(ctx, sale.ID)
	if err != nil {
		return nil, err
	}

	return &model.ConfirmCardPaymentResponse{
		Duplicated: duplicated,
		Sale:       result.Sale,
		Entries:    result.Entries,
	}, nil
}
