package main

import "github.com/plutopoly/backend/internal/tests"

// Development entrypoint that tolerates missing MongoDB/Redis.
func main() {
	tests.RunTestServer()
}
