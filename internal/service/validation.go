package service

import (
	"net/mail"
	"strings"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

const minPasswordLength = 6

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email
}

// emailLocalPart returns the text before the first "@".
func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
