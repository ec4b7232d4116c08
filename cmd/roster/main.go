package main

// roster generates bcrypt roster entries for PASSWORD_AUTH_USERS.
//
// Usage:
//
//	roster <email> <password> [display name]
//
// Prints an "email:hash[:name]" entry suitable for the semicolon-separated
// roster env var.

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: roster <email> <password> [display name]")
		os.Exit(2) //nolint:forbidigo // CLI usage error.
	}

	email := strings.ToLower(strings.TrimSpace(os.Args[1]))
	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[2]), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1) //nolint:forbidigo // CLI failure.
	}

	entry := email + ":" + string(hash)
	if len(os.Args) > 3 {
		entry += ":" + strings.Join(os.Args[3:], " ")
	}
	fmt.Println(entry)
}
