package main

import (
	"marketplace/internal/app"
	"marketplace/internal/logger"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	app, err := app.NewApp()
	if err != nil {
		logger.L().WithError(err).Fatal("Could not start app")
	}

	app.Run()
}
