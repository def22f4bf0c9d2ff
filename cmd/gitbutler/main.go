package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Local development keeps credentials in .env; in CI they arrive
	// as real environment variables and the file simply isn't there.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		log.Printf("❌ %v", err)
		return 1
	}
	return 0
}
