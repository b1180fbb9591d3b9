package testutil

import (
	"github.com/rafflelab/backend/internal/client"
)

var (
	PaymentAccount  = mustChainAccount("1.2.100", "house-payment", "house-password")
	ReceiverAccount = mustChainAccount("1.2.200", "house-receiver", "receiver-password")
)

func mustChainAccount(id, name, password string) client.ChainAccount {
	account, err := client.PlayerChainAccount(id, name, password)
	if err != nil {
		panic(err)
	}

	return account
}
