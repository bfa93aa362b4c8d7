package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9 ]{8,15}$`)
	reSize  = regexp.MustCompile(`^[A-Za-z0-9./ -]{1,20}$`)
	reSlug  = regexp.MustCompile(`^[a-z0-9-]{1,64}$`)
	reCode  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 64 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

// Wilaya validates an Algerian region code (58 wilayas).
func Wilaya(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 58 {
		return 0, false
	}
	return n, true
}

func WilayaCode(n int) bool { return n >= 1 && n <= 58 }

func Size(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reSize.MatchString(s)
}

func Slug(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reSlug.MatchString(s)
}

// CouponCode validates the shape only; existence is the evaluator's job.
func CouponCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reCode.MatchString(s)
}

func DeliveryType(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, s == "home" || s == "desk"
}

// Qty parses a storefront quantity, clamped to keep abuse out of the cart.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	}
	return n
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, true
}

func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n > 0
}

func Price(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil && v >= 0
}
