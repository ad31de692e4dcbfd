package utils

import (
	"strings"
	"testing"
)

func TestGenerateReferralCodeFromUsername(t *testing.T) {
	code, err := GenerateReferralCode("John_Doe99")
	if err != nil {
		t.Fatalf("GenerateReferralCode failed: %v", err)
	}

	if !strings.HasPrefix(code, "johndoe99-") {
		t.Errorf("expected johndoe99- prefix, got %s", code)
	}
	if len(code) != len("johndoe99-")+3 {
		t.Errorf("expected 3-digit suffix, got %s", code)
	}
}

func TestGenerateReferralCodeFallback(t *testing.T) {
	code, err := GenerateReferralCode("")
	if err != nil {
		t.Fatalf("GenerateReferralCode failed: %v", err)
	}

	parts := strings.SplitN(code, "-", 2)
	if len(parts) != 2 || parts[0] == "" || len(parts[1]) != 3 {
		t.Errorf("unexpected fallback code format: %s", code)
	}
}

func TestSlugifyTruncatesAndFilters(t *testing.T) {
	got := slugify("Ünïcode-User_With_A_Very_Long_Name")
	if len(got) > 16 {
		t.Errorf("slug not truncated: %s", got)
	}
	if strings.ContainsAny(got, "-_ÜÏ") {
		t.Errorf("slug contains filtered characters: %s", got)
	}
}
