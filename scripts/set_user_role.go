package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"inquill/internal/config"
	"inquill/internal/db"
	"inquill/internal/db/sqlc"
	"inquill/internal/policy"
	"inquill/internal/repository"
)

// Bootstraps the first owner account, which cannot be created through the
// API: go run scripts/set_user_role.go -email someone@example.org -role owner
func main() {
	email := flag.String("email", "", "email of an existing account")
	roleName := flag.String("role", "owner", "user, writer, admin or owner")
	flag.Parse()

	config.LoadDotEnv()

	if strings.TrimSpace(*email) == "" {
		log.Fatal("-email is required")
	}
	role, err := policy.ParseRole(*roleName)
	if err != nil {
		log.Fatal(err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	sqlDB, err := db.Open(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := repository.NewStore(sqlDB)
	user, err := store.Q.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("No user with email %s; register the account first", *email)
	}
	if err != nil {
		log.Fatalf("Failed to load user: %v", err)
	}
	if user.Role == string(role) {
		fmt.Printf("%s already has role %s\n", user.Username, role.Display())
		return
	}

	updated, err := store.Q.UpdateUserRole(ctx, sqlc.UpdateUserRoleParams{ID: user.ID, Role: string(role)})
	if err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}
	fmt.Printf("%s: %s -> %s\n", updated.Username, policy.Role(user.Role).Display(), role.Display())
}
