package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"aftermarket/internal/cli"
)

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Println("[WARN] failed to load .env:", err)
	}

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
