package main

import (
	"github.com/joho/godotenv"

	"github.com/MeKo-Tech/affordmap/internal/cmd"
)

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()
	cmd.Execute()
}
