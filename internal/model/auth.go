package model

const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// AccessToken is the payload signed into operator bearer tokens.
type AccessToken struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
