package common

import "github.com/rafflelab/backend/pkg/xsync"

// LockKeyPlayerLottery guards the ticket purchase of a player on one chain
// lottery, from the history snapshot until the entries are stored.
func LockKeyPlayerLottery(playerID, lotteryRef string) string {
	return xsync.Key("settlement", playerID, lotteryRef)
}

func LockKeyRaffleResolution(raffleID string) string {
	return xsync.Key("resolution", raffleID)
}
