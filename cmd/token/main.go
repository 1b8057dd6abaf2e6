// Command token prints a manager access token for local development.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/jwt"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	companyID := flag.String("company", "", "company id the token is scoped to")
	userID := flag.String("user", uuid.NewString(), "user id")
	role := flag.String("role", "manager", "role claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" || *companyID == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET_KEY and -company are required")
		os.Exit(2)
	}

	token, expiresAt, err := jwt.NewJWTService(secret, *ttl).GenerateAccessToken(*userID, *companyID, *role)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Unix(expiresAt, 0).Format(time.RFC3339))
}
