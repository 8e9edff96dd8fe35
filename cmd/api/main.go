package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/invox/internal/auth"
	"github.com/MrJamesThe3rd/invox/internal/config"
	"github.com/MrJamesThe3rd/invox/internal/database"
	invoxHttp "github.com/MrJamesThe3rd/invox/internal/http"
	"github.com/MrJamesThe3rd/invox/internal/http/authapi"
	"github.com/MrJamesThe3rd/invox/internal/http/invoiceapi"
	"github.com/MrJamesThe3rd/invox/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/invox/internal/invoice/store"
	"github.com/MrJamesThe3rd/invox/internal/user"
	userStore "github.com/MrJamesThe3rd/invox/internal/user/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenManager(cfg.Token.Secret, cfg.Token.TTL)

	var (
		userService    = user.NewService(userStore.New(db), tokens)
		invoiceService = invoice.NewService(invoiceStore.New(db))
	)

	var (
		authH    = authapi.NewHandler(userService)
		invoiceH = invoiceapi.NewHandler(invoiceService)
	)

	router := invoxHttp.New(authH, invoiceH, invoxHttp.Options{
		Tokens:         tokens,
		AllowedOrigin:  cfg.CORS.Origin,
		RequestTimeout: cfg.Server.Timeout,
	})

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
