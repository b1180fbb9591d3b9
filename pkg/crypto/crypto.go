package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"hash"
	"math/big"
)

func HMAC(hashFunc func() hash.Hash, data []byte, secret []byte) string {
	h := hmac.New(hashFunc, secret)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EqualHMAC compares two hex encoded MACs in constant time.
func EqualHMAC(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

// RandIntn returns a uniform random value in [0, n). It panics if got a
// non-positive parameter.
func RandIntn(n int) int {
	r, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}

	return int(r.Int64())
}
