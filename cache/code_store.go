package cache

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// CodeTTL is how long an emailed verification code stays valid.
const CodeTTL = 5 * time.Minute

// CodeStore keeps short-lived email verification codes in their own key
// namespace. Codes are single-use: verification consumes the key.
type CodeStore struct {
	store *Store
}

// NewCodeStore builds a CodeStore over the primitive store.
func NewCodeStore(store *Store) *CodeStore {
	return &CodeStore{store: store}
}

func codeKey(email string) string {
	return "user:code:" + email
}

// GenerateCode creates a numeric code with the given length.
func GenerateCode(n int) string {
	if n <= 0 {
		n = 6
	}
	digits := make([]byte, n)
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			v = big.NewInt(time.Now().UnixNano() % 10)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}

// Save stores a code for an email address.
func (c *CodeStore) Save(ctx context.Context, email, code string) error {
	return c.store.Set(ctx, codeKey(email), []byte(code), CodeTTL)
}

// VerifyAndConsume checks a code and removes it if present. A wrong code
// still consumes the stored one, so guesses cannot be retried against the
// same code.
func (c *CodeStore) VerifyAndConsume(ctx context.Context, email, code string) bool {
	stored, ok := c.store.GetDel(ctx, codeKey(email))
	if !ok {
		return false
	}
	return string(stored) == code
}
