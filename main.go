package main

import (
	"fmt"
	"os"

	"github.com/haguru/jungle/config"
	"github.com/haguru/jungle/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	app, err := app.NewApp(config.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start jungle: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		app.Logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
