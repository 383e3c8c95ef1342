package provider

import (
	"fmt"
	"strings"

	"github.com/rentiva/veriprop/internal/match"
)

// Provider responses are not consistent about field names: the same
// registry returns firstname, first_name or firstName depending on the
// endpoint and its vintage. The variance stops here; everything past
// this file sees IdentityData.
var fieldAliases = map[string][]string{
	"first_name":    {"first_name", "firstname", "firstName", "given_name", "givenName"},
	"last_name":     {"last_name", "lastname", "lastName", "surname"},
	"middle_name":   {"middle_name", "middlename", "middleName", "other_names"},
	"date_of_birth": {"date_of_birth", "dateOfBirth", "dob", "birthdate", "birth_date"},
	"gender":        {"gender", "sex"},
	"phone_number":  {"phone_number", "phoneNumber", "phone", "mobile", "telephone"},
	"photo":         {"photo", "image", "picture"},
}

// normalizeIdentity maps a raw provider entity onto the canonical
// field set. Unrecognised scalar fields are kept in Extra so
// document-specific data (licence class, issuing state) is not lost.
func normalizeIdentity(entity map[string]any) *IdentityData {
	data := &IdentityData{}

	lookup := func(canonical string) string {
		for _, alias := range fieldAliases[canonical] {
			if value, exists := entity[alias]; exists {
				if s := stringValue(value); s != "" {
					return s
				}
			}
		}
		return ""
	}

	data.FirstName = lookup("first_name")
	data.LastName = lookup("last_name")
	data.MiddleName = lookup("middle_name")
	data.DateOfBirth = lookup("date_of_birth")
	data.Gender = lookup("gender")
	data.PhoneNumber = lookup("phone_number")
	data.Photo = lookup("photo")

	known := make(map[string]bool)
	for _, aliases := range fieldAliases {
		for _, alias := range aliases {
			known[alias] = true
		}
	}

	for key, value := range entity {
		if known[key] {
			continue
		}
		if s := stringValue(value); s != "" {
			if data.Extra == nil {
				data.Extra = make(map[string]string)
			}
			data.Extra[key] = s
		}
	}

	return data
}

func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", value), ".0")
	case bool:
		return fmt.Sprintf("%t", value)
	default:
		return ""
	}
}

// blendConfidence scores the provider-returned identity against the
// claimed one. With a date of birth on both sides the blend is
// 0.4 first name, 0.4 last name, 0.2 dob; without one it is the plain
// average of the two name scores.
func blendConfidence(firstName, lastName, dob string, data *IdentityData) float64 {
	firstScore := match.NameMatchConfidence(firstName, data.FirstName)
	lastScore := match.NameMatchConfidence(lastName, data.LastName)

	if dob != "" && data.DateOfBirth != "" {
		dobScore := 0.0
		if datesEqual(dob, data.DateOfBirth) {
			dobScore = 100
		}
		return firstScore*0.4 + lastScore*0.4 + dobScore*0.2
	}

	return (firstScore + lastScore) / 2
}

// datesEqual compares dates loosely: providers return 1990-01-01,
// 01/01/1990 or 1990/01/01 for the same birthday.
func datesEqual(a, b string) bool {
	return canonicalDate(a) == canonicalDate(b) && canonicalDate(a) != ""
}

func canonicalDate(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "-")

	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return s
	}

	// Day-first and year-first forms both normalize to year-first.
	if len(parts[0]) == 4 {
		return parts[0] + "-" + pad2(parts[1]) + "-" + pad2(parts[2])
	}
	if len(parts[2]) == 4 {
		return parts[2] + "-" + pad2(parts[1]) + "-" + pad2(parts[0])
	}

	return s
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// maskNumber reduces an identifier to a fixed redacted form before it
// is logged anywhere. Short values are masked entirely.
func maskNumber(number string) string {
	if len(number) <= 4 {
		return "****"
	}
	return number[:2] + strings.Repeat("*", len(number)-4) + number[len(number)-2:]
}
