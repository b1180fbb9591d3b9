package mocks

import (
	"context"

	"github.com/rafflelab/backend/internal/model"
	"github.com/stretchr/testify/mock"
)

type Notifier struct {
	mock.Mock
}

func (n *Notifier) NotifyPurchase(arg1 context.Context, arg2 model.PurchaseNotification) error {
	args := n.Called(arg1, arg2)
	return args.Error(0)
}

func (n *Notifier) NotifyWinner(arg1 context.Context, arg2 model.WinnerNotification) error {
	args := n.Called(arg1, arg2)
	return args.Error(0)
}
