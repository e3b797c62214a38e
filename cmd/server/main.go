package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/pi11/podcaster/internal/config"
	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/handlers"
	"github.com/pi11/podcaster/internal/middleware"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg := config.Load()
	db.InitDB(cfg.DatabaseURL)

	h := handlers.New()
	limiter := middleware.NewRateLimiterMiddleware(5, 10)

	log.Printf("Starting reporting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, limiter.Middleware(h.Router())); err != nil {
		log.Fatal(err)
	}
}
