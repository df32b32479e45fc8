package model

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/ivyforms/ivyforms/internal/apperr"
)

func checkID(name string, id int64) error {
	if id < 0 {
		return apperr.Validation("%s must not be negative", name)
	}
	return nil
}

func maxLen(name, v string, n int) error {
	if utf8.RuneCountInString(v) > n {
		return apperr.Validation("%s must be at most %d characters", name, n)
	}
	return nil
}

func requireLen(name, v string, n int) error {
	if strings.TrimSpace(v) == "" {
		return apperr.Validation("%s is required", name)
	}
	return maxLen(name, v, n)
}

// ValidEmail reports whether s is a single bare address.
func ValidEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == strings.TrimSpace(s)
}

// SplitAddresses splits a comma separated recipient list.
func SplitAddresses(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func checkAddresses(name, list string, required bool) error {
	addrs := SplitAddresses(list)
	if required && len(addrs) == 0 {
		return apperr.Validation("%s is required", name)
	}
	for _, a := range addrs {
		if !ValidEmail(a) {
			return apperr.Validation("%s contains an invalid address %q", name, a)
		}
	}
	return nil
}
