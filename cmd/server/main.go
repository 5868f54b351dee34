package main

import (
	"context"
	"log"

	"github.com/Kayvinh/messagely/internal/server"
	"github.com/Kayvinh/messagely/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("error initializing app: %v", err)
		return
	}

	app.Run(ctx)
}
