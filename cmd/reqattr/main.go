// Command reqattr serves and inspects the request attributes the resolvers
// derive from HTTP requests.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Build information, set via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
