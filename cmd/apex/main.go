package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apexfuel/apex/internal/database"
	"github.com/apexfuel/apex/internal/logging"
	"github.com/apexfuel/apex/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("APEX_LOG_LEVEL"), os.Getenv("APEX_LOG_FORMAT"))

	port := os.Getenv("APEX_PORT")
	if port == "" {
		port = "8080"
	}

	// In-memory by default: the demo dataset is reseeded on every start
	// and nothing survives a restart.
	dbPath := os.Getenv("APEX_DB_PATH")
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, server.Config{}, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		fmt.Printf("Apex running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	srv.Manager().Shutdown()
	srv.Hub().Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
