package main

import (
	"fmt"
	"log"
	"net/http"

	"dropin-backend/config"
	"dropin-backend/database"
	"dropin-backend/pkg/db/sqlite"
	"dropin-backend/util"
	"dropin-backend/util/api"

	"github.com/rs/cors"
)

func main() {
	log.Println("Initializing application...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Using database at: %s", cfg.DBPath)

	// Apply migrations before initializing the database
	_, err = sqlite.ConnectAndMigrate(cfg.DBPath, cfg.MigrationsPath)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	if err := database.InitDB(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	util.SetTokenConfig(cfg.JWTSecret, cfg.SessionTTL)

	mux := api.NewRouter()

	// Static file server for uploaded images
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true, // Required for cookies!
	})
	handler := c.Handler(mux)

	fmt.Printf("Server running on localhost:%s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
