package entity

import "database/sql"

type User struct {
	Base

	Email     string `gorm:"unique"`
	Firstname string
	Lastname  string

	OrganizationID sql.NullString

	IsEmailAllowed bool

	// Chain credentials. The active key is derived from the account name and
	// the master password.
	PeerplaysAccountName    string
	PeerplaysAccountID      string `gorm:"index"`
	PeerplaysMasterPassword string
}

func (u *User) HasChainCredentials() bool {
	return u.PeerplaysAccountName != "" && u.PeerplaysMasterPassword != ""
}
