package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yuchialin/concierge/backend/internal/config"
	"github.com/yuchialin/concierge/backend/internal/handler"
	"github.com/yuchialin/concierge/backend/internal/handler/events"
	"github.com/yuchialin/concierge/backend/internal/model/persona"
	convstore "github.com/yuchialin/concierge/backend/internal/service/conversation"
	geoService "github.com/yuchialin/concierge/backend/internal/service/geo"
	"github.com/yuchialin/concierge/backend/internal/service/llm"
	"github.com/yuchialin/concierge/backend/internal/service/orchestrator"
	"github.com/yuchialin/concierge/backend/internal/service/router"
	"github.com/yuchialin/concierge/backend/internal/service/session"
	statusService "github.com/yuchialin/concierge/backend/internal/service/status"
	"github.com/yuchialin/concierge/backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())

	// Durable state store; losing it degrades to a fresh conversation.
	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("failed to open state store: %v", err)
	}
	defer store.Close()

	client, err := llm.NewClient(ctx, cfg.AI)
	if err != nil {
		if errors.Is(err, llm.ErrDisabled) {
			log.Fatal("GEMINI_API_KEY 未配置，無法啟動對話服務")
		}
		log.Fatalf("failed to initialize gemini client: %v", err)
	}
	log.Println("gemini client initialized successfully")

	hub := events.NewHub()
	history := convstore.NewStore()

	sessions := session.NewManager(personaStore, client, history, store, hub)
	activePersona, savedTurns := store.LoadState(personaStore)
	if err := sessions.Bootstrap(ctx, activePersona, savedTurns); err != nil {
		log.Fatalf("failed to bootstrap session: %v", err)
	}
	log.Printf("session restored: persona=%s turns=%d", activePersona.ID, history.Len())

	personaRouter := router.New(client, personaStore)
	locator := geoService.NewLocator(cfg.Geo)
	geocoder := geoService.NewGeocoder(cfg.Geo)
	statusSvc := statusService.NewService(client, locator, cfg.Status)

	orch := orchestrator.New(personaStore, personaRouter, sessions, history, locator, store, hub, cfg.AI.SubmitTimeout)

	httpRouter := handler.NewRouter(personaStore, sessions, orch, history, geocoder, statusSvc, hub)

	startServer(ctx, cfg.Server, httpRouter)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Concierge backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
