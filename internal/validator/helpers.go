package validator

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	RgxEmail       = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+\\/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")
	RgxPhoneNumber = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)
	RgxDate        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	RgxDigits      = regexp.MustCompile(`^\d+$`)
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MinRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) >= n
}

func MaxRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

func Between[T int | float64](value, min, max T) bool {
	return value >= min && value <= max
}

func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

func In[T comparable](value T, safelist ...T) bool {
	return slices.Contains(safelist, value)
}

func AllIn[T comparable](values []T, safelist ...T) bool {
	for _, value := range values {
		if !In(value, safelist...) {
			return false
		}
	}
	return true
}

func NoDuplicates[T comparable](values []T) bool {
	seen := make(map[T]bool)
	for _, value := range values {
		if seen[value] {
			return false
		}
		seen[value] = true
	}
	return true
}

func IsEmail(value string) bool {
	if len(value) > 254 {
		return false
	}
	return RgxEmail.MatchString(value)
}

func IsDigits(value string) bool {
	return RgxDigits.MatchString(value)
}

func IsDate(value string) bool {
	return RgxDate.MatchString(value)
}
