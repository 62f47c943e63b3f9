// Package app provides application initialization and dependency wiring.
//
// App is the container that owns the database pool, Genkit runtime, corpus
// store and query engine, and releases them in order on Close.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geochain/geochain/internal/config"
	"github.com/geochain/geochain/internal/corpus"
	"github.com/geochain/geochain/internal/engine"
)

// App is the core application container.
type App struct {
	Config *config.Config

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool
	Corpus   *corpus.Store
	Engine   *engine.Engine

	logger      *slog.Logger
	otelCleanup func()
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	if a.logger != nil {
		a.logger.Info("shutting down application")
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		if a.logger != nil {
			a.logger.Info("database pool closed")
		}
	}

	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
