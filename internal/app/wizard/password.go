package wizard

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"
)

// DefaultMinPasswordStrength is the lowest acceptable Strength score.
const DefaultMinPasswordStrength = 80

// DefaultGeneratedPasswordLength is the length of passwords the wizard generates.
const DefaultGeneratedPasswordLength = 16

const passwordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"

// StrengthResult is a 0–100 password score with a human label and hints.
type StrengthResult struct {
	Score    int
	Label    string
	Feedback []string
}

// Strength scores a password on length, character variety, uniqueness and
// common patterns.
func Strength(password string) StrengthResult {
	if password == "" {
		return StrengthResult{Score: 0, Label: "Very Weak", Feedback: []string{"Password is required"}}
	}

	score := 0
	var feedback []string
	n := utf8.RuneCountInString(password)

	for _, threshold := range []int{8, 10, 12, 14, 16} {
		if n >= threshold {
			if threshold == 8 {
				score += 10
			} else {
				score += 5
			}
		}
	}
	if n < 8 {
		feedback = append(feedback, "Use at least 8 characters")
	}

	var lower, upper, digit, symbol bool
	unique := make(map[rune]struct{})
	for _, r := range password {
		unique[r] = struct{}{}
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	variety := []struct {
		ok   bool
		hint string
	}{
		{lower, "Add lowercase letters"},
		{upper, "Add uppercase letters"},
		{digit, "Add numbers"},
		{symbol, "Add symbols (!@#$%^&*)"},
	}
	for _, v := range variety {
		if v.ok {
			score += 10
		} else {
			feedback = append(feedback, v.hint)
		}
	}

	for _, threshold := range []int{6, 8, 10, 12} {
		if len(unique) >= threshold {
			score += 5
		}
	}

	if hasTripleRepeat(password) {
		feedback = append(feedback, "Avoid repeated characters")
	} else {
		score += 5
	}

	if hasCommonPattern(password) {
		score -= 20
		feedback = append(feedback, "Avoid common patterns")
	}

	if lower && upper {
		score += 5
	}

	score = max(0, min(100, score))
	if len(feedback) == 0 {
		feedback = []string{"Great password!"}
	}
	return StrengthResult{Score: score, Label: strengthLabel(score), Feedback: feedback}
}

func strengthLabel(score int) string {
	switch {
	case score < 40:
		return "Weak"
	case score < 60:
		return "Fair"
	case score < 80:
		return "Good"
	case score < 90:
		return "Strong"
	default:
		return "Very Strong"
	}
}

func hasTripleRepeat(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if run > 0 && r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= 3 {
			return true
		}
	}
	return false
}

func hasCommonPattern(s string) bool {
	lower := strings.ToLower(s)
	if strings.HasPrefix(s, "123") || strings.HasSuffix(s, "321") {
		return true
	}
	for _, p := range []string{"abc", "qwerty", "password"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for d := '1'; d <= '9'; d++ {
		if strings.HasPrefix(s, strings.Repeat(string(d), 3)) {
			return true
		}
	}
	return false
}

// Characters that are easy to confuse (0, O, l, 1, I) are left out.
const (
	genUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	genLower   = "abcdefghjkmnpqrstuvwxyz"
	genDigits  = "23456789"
	genSymbols = "!@#$%^&*"
)

// GeneratePassword returns a random password of the given length scoring at
// least minStrength, giving up after a bounded number of attempts.
func GeneratePassword(length, minStrength int) (string, error) {
	if length < 8 {
		return "", fmt.Errorf("generated password length must be at least 8, got %d", length)
	}
	all := genUpper + genLower + genDigits + genSymbols

	var (
		pw  string
		err error
	)
	for attempt := 0; attempt < 100; attempt++ {
		pw, err = generateOnce(length, all)
		if err != nil {
			return "", err
		}
		if Strength(pw).Score >= minStrength {
			return pw, nil
		}
	}
	return pw, nil
}

func generateOnce(length int, all string) (string, error) {
	buf := make([]byte, 0, length)
	for _, set := range []string{genUpper, genUpper, genLower, genLower, genDigits, genDigits, genSymbols, genSymbols} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for i := len(buf) - 1; i > 0; i-- {
		j, err := randIntn(i + 1)
		if err != nil {
			return "", err
		}
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf), nil
}

func pick(set string) (byte, error) {
	i, err := randIntn(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}
