// Command devtoken prints a bearer token for local testing of the API.
//
//	go run ./cmd/devtoken -sub stu-1 -role student
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"campusticketing/config"
	"campusticketing/internal/adapters/auth"
	"campusticketing/internal/domain"
)

func main() {
	sub := flag.String("sub", "", "user id placed in the sub claim")
	role := flag.String("role", domain.RoleStudent, "role: student or organizer")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *sub == "" {
		fmt.Fprintln(os.Stderr, "devtoken: -sub is required")
		flag.Usage()
		os.Exit(2)
	}
	if *role != domain.RoleStudent && *role != domain.RoleOrganizer {
		fmt.Fprintf(os.Stderr, "devtoken: unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*sub, []string{*role}, *ttl)
	if err != nil {
		slog.Error("issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
