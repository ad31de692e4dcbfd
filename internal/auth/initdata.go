package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Rejection reasons for initData verification. Handlers must collapse all of
// them into a single unauthenticated response; the distinction exists for logs.
var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStalePayload     = errors.New("stale payload")
)

// TelegramUser is the identity claim embedded in a verified initData payload
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// VerifyInitData validates a Telegram Mini App initData payload and returns
// the embedded user claim. The signature is checked against the secret key
// HMAC-SHA256(key="WebAppData", message=botToken), and auth_date must lie
// within maxAge of now.
func VerifyInitData(raw, botToken string, maxAge time.Duration, now time.Time) (*TelegramUser, error) {
	if raw == "" {
		return nil, ErrMalformedPayload
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	claimed := lastValue(values, "hash")
	if claimed == "" {
		return nil, fmt.Errorf("%w: hash missing", ErrMalformedPayload)
	}
	values.Del("hash")

	secret := hmacSHA256([]byte("WebAppData"), []byte(botToken))
	expected := hex.EncodeToString(hmacSHA256(secret, []byte(DataCheckString(values))))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(claimed)) != 1 {
		return nil, ErrInvalidSignature
	}

	authDateStr := lastValue(values, "auth_date")
	if authDateStr == "" {
		return nil, fmt.Errorf("%w: auth_date missing", ErrMalformedPayload)
	}
	authDate, err := strconv.ParseInt(authDateStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad auth_date", ErrMalformedPayload)
	}
	if now.Unix()-authDate > int64(maxAge.Seconds()) {
		return nil, ErrStalePayload
	}

	userJSON := lastValue(values, "user")
	if userJSON == "" {
		return nil, fmt.Errorf("%w: user missing", ErrMalformedPayload)
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("%w: bad user field", ErrMalformedPayload)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: user id missing", ErrMalformedPayload)
	}

	return &user, nil
}

// DataCheckString renders payload fields as the canonical newline-joined,
// key-sorted "k=v" string Telegram signs. Keys sort byte-wise ascending; for
// repeated keys the last occurrence wins. The exact byte output is what gets
// HMAC'd, so values pass through without re-encoding.
func DataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values[k][len(values[k])-1])
	}
	return strings.Join(lines, "\n")
}

func lastValue(values url.Values, key string) string {
	vs := values[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}

func hmacSHA256(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}
