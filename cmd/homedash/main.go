package main

import (
	"log"

	"github.com/MrSnakeDoc/homedash/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ homedash failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ homedash stopped with error: %v", err)
	}
}
