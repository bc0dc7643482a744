// internal/daily/daily.go
//
// Daily challenge seed.
// Every player who asks for the daily game on the same UTC date gets the
// same deck: the seed is HMAC-SHA256(salt, YYYY-MM-DD).

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns HMAC-SHA256(salt, YYYY-MM-DD) for the date, used as the
// shuffle seed. Without the salt the layout cannot be predicted in advance.
func Seed(date time.Time, salt string) [32]byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return seed
}
