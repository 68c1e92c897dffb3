package main

import (
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/plutopoly/backend/internal/api/middleware/auth"
)

// Dev helper: prints a signed JWT for a fresh ObjectId so API routes can be
// exercised with curl without going through /auth/register.
func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "plutopoly-dev-secret"
	}

	userID := primitive.NewObjectID().Hex()

	tokenString, err := auth.GenerateJWT(userID, secret, 24)
	if err != nil {
		fmt.Printf("Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated ObjectId: %s\n", userID)
	fmt.Printf("Valid JWT token:\n%s\n", tokenString)
}
