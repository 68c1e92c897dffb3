package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/db/redis"
)

// Connectivity probe for Redis. Reads REDIS_URI (host:port), REDIS_PASSWORD
// and REDIS_DB from the environment (or .env) and exercises connect, ping
// and a set/get round trip.
func main() {
	_ = godotenv.Load()

	addr := os.Getenv("REDIS_URI")
	if addr == "" {
		fmt.Println("Error: REDIS_URI environment variable is not set")
		os.Exit(1)
	}
	password := os.Getenv("REDIS_PASSWORD")
	db := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Printf("Invalid REDIS_DB value %q: %v\n", raw, err)
			os.Exit(1)
		}
		db = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger, _ := zap.NewDevelopment()
	sugar := logger.Sugar()
	defer logger.Sync()

	fmt.Println("Attempting to connect to Redis...")
	client, err := redis.Connect(ctx, addr, password, db, sugar)
	if err != nil {
		fmt.Printf("Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Println("Connection established, attempting to ping...")
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		fmt.Printf("Failed to ping Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully connected to Redis! Response: %s\n", pong)

	fmt.Println("\nTrying to set and get a test value...")
	testKey := "test_connection"
	testValue := fmt.Sprintf("Test value at %s", time.Now().Format(time.RFC3339))

	if err := client.Set(ctx, testKey, testValue, 5*time.Minute).Err(); err != nil {
		fmt.Printf("Failed to set test value: %v\n", err)
		os.Exit(1)
	}

	val, err := client.Get(ctx, testKey).Result()
	if err != nil {
		fmt.Printf("Failed to get test value: %v\n", err)
		os.Exit(1)
	}

	if val == testValue {
		fmt.Println("Successfully set and retrieved test value!")
	} else {
		fmt.Printf("Warning: Retrieved value doesn't match: got %s, want %s\n", val, testValue)
	}
}
