package catalog

import (
	"net/mail"
	"strings"
)

func validateEmail(addr string) error {
	if addr == "" {
		return invalid("email is required")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != strings.TrimSpace(addr) {
		return invalid("email %q is not valid", addr)
	}
	return nil
}
