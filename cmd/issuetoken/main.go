package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Dosada05/fightclub-brackets/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	userID := flag.Int("user", 1, "user id placed in the token")
	role := flag.String("role", string(middleware.RoleOrganizer), "role claim: admin, organizer or viewer")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		logger.Error("JWT_SECRET_KEY environment variable is not set")
		os.Exit(1)
	}

	switch middleware.Role(*role) {
	case middleware.RoleAdmin, middleware.RoleOrganizer, middleware.RoleViewer:
	default:
		logger.Error("unknown role", slog.String("role", *role))
		os.Exit(2)
	}

	token, err := middleware.IssueToken([]byte(secret), *userID, middleware.Role(*role), *ttl)
	if err != nil {
		logger.Error("failed to sign token", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(token)
}
