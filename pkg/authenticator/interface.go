package authenticator

// TokenEngine issues and verifies signed bearer tokens carrying a payload of
// type T.
type TokenEngine[T any] interface {
	Generate(sub string, obj T) (string, error)
	Verify(token string) (T, error)
}
