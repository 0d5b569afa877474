package main

import (
	"log"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/survivorpool/lms-app/internal/db"
	"github.com/survivorpool/lms-app/internal/middleware"
	"github.com/survivorpool/lms-app/internal/service"
	"github.com/survivorpool/lms-app/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	database := db.InitDB()
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	middleware.InitAuth()

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Store = sqlite3store.New(database.DB)

	clock := clockwork.NewRealClock()

	roundService := service.NewRoundService(database, store.NewRoundStore(database), store.NewCompetitionStore(database), clock)
	scheduler, err := roundService.StartResolveScheduler()
	if err != nil {
		log.Fatal("Failed to start resolve scheduler:", err)
	}
	defer scheduler.Shutdown()

	router := newRouter(sessionManager, database, clock)

	log.Println("Server starting on http://localhost:8080")
	if err := http.ListenAndServe(":8080", router); err != nil {
		log.Fatal(err)
	}
}
