package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

var fallbackWords = []string{
	"falcon", "tiger", "dragon", "wolf", "eagle",
	"bear", "lion", "hawk", "phoenix", "panther",
	"fox", "raven", "viper", "shark", "lynx",
	"cobra", "stallion", "jaguar", "orca", "leopard",
}

// GenerateReferralCode creates a shareable referral code in the format
// "slug-NNN" where the slug comes from the username when one exists. Codes
// are not guaranteed unique; callers retry on collision.
func GenerateReferralCode(username string) (string, error) {
	slug := slugify(username)
	if slug == "" {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(fallbackWords))))
		if err != nil {
			return "", fmt.Errorf("failed to pick fallback word: %w", err)
		}
		slug = fallbackWords[idx.Int64()]
	}

	num, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code number: %w", err)
	}

	return fmt.Sprintf("%s-%03d", slug, num.Int64()), nil
}

// slugify keeps lowercase alphanumerics from the first 16 characters
func slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= 16 {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
