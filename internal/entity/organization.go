package entity

type Organization struct {
	Base

	Name        string
	Description string

	UserID string
	User   User `gorm:"foreignKey:UserID"`
}

type Beneficiary struct {
	Base

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	OrganizationID string       `gorm:"index"`
	Organization   Organization `gorm:"foreignKey:OrganizationID"`
}
