// Package main is the entry point for the System authoritative server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/phantomguild/system-server/internal/domain/player"
	"github.com/phantomguild/system-server/internal/engine"
	"github.com/phantomguild/system-server/internal/events"
	"github.com/phantomguild/system-server/internal/infra/ai"
	"github.com/phantomguild/system-server/internal/infra/cache"
	"github.com/phantomguild/system-server/internal/infra/storage"
	"github.com/phantomguild/system-server/internal/narrator"
	"github.com/phantomguild/system-server/internal/network"
	"github.com/phantomguild/system-server/internal/notify"
	"github.com/phantomguild/system-server/internal/platform/logger"
	"github.com/phantomguild/system-server/internal/platform/metrics"
	"github.com/phantomguild/system-server/internal/platform/tuning"
)

// CachedPlayerStore layers the snapshot cache over the player repository.
// Reads hit the cache first; writes go through to the repository and then
// refresh the cache so a relogin within the TTL skips the database.
type CachedPlayerStore struct {
	repo  storage.PlayerRepository
	cache *cache.PlayerCache
}

func (s *CachedPlayerStore) SavePlayer(ctx context.Context, p *player.Player) error {
	if err := s.repo.SavePlayer(ctx, p); err != nil {
		return err
	}
	_ = s.cache.SetPlayer(ctx, p)
	return nil
}

func (s *CachedPlayerStore) LoadPlayer(ctx context.Context, email string) (*player.Player, error) {
	if p, err := s.cache.GetPlayer(ctx, email); err == nil {
		return p, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, err
	}

	p, err := s.repo.LoadPlayer(ctx, email)
	if err != nil || p == nil {
		return p, err
	}
	_ = s.cache.SetPlayer(ctx, p)
	return p, nil
}

var _ engine.PlayerStore = (*CachedPlayerStore)(nil)

// openDatabase selects the backend from the environment. DB_DIALECT is
// "sqlite" (default) or "postgres"; DB_DSN overrides the default path/DSN.
func openDatabase(appLogger *logger.Logger) (*sql.DB, storage.Dialect) {
	dialect := storage.Dialect(os.Getenv("DB_DIALECT"))
	dsn := os.Getenv("DB_DSN")

	switch dialect {
	case storage.DialectPostgres:
		appLogger.Info("Initializing PostgreSQL backend...")
		db, err := storage.InitPostgres(dsn)
		if err != nil {
			appLogger.Error("Failed to initialize PostgreSQL: " + err.Error())
			os.Exit(1)
		}
		return db, storage.DialectPostgres
	default:
		if dsn == "" {
			dsn = "system.db"
		}
		appLogger.Info("Initializing SQLite database '" + dsn + "'...")
		db, err := storage.InitSQLite(dsn)
		if err != nil {
			appLogger.Error("Failed to initialize SQLite: " + err.Error())
			os.Exit(1)
		}
		return db, storage.DialectSQLite
	}
}

func buildRepositories(db *sql.DB, dialect storage.Dialect) (storage.PlayerRepository, storage.InventoryRepository, storage.ChatRepository, storage.EventRepository) {
	if dialect == storage.DialectPostgres {
		return storage.NewPostgresPlayerRepository(db),
			storage.NewPostgresInventoryRepository(db),
			storage.NewPostgresChatRepository(db),
			storage.NewPostgresEventRepository(db)
	}
	return storage.NewSQLitePlayerRepository(db),
		storage.NewSQLiteInventoryRepository(db),
		storage.NewSQLiteChatRepository(db),
		storage.NewSQLiteEventRepository(db)
}

// pickProvider prefers Gemini when its key is configured and falls back
// to OpenAI. With neither key set the narrator serves canned lines only.
func pickProvider(budgetGate *ai.BudgetGate, appLogger *logger.Logger) ai.LLMProvider {
	gemini := ai.NewGeminiProvider(budgetGate)
	if gemini.IsAvailable() {
		appLogger.Info("Narrator voice: " + gemini.Name())
		return gemini
	}
	openai := ai.NewOpenAIProvider(budgetGate)
	if openai.IsAvailable() {
		appLogger.Info("Narrator voice: " + openai.Name())
		return openai
	}
	appLogger.Warn("No LLM API key configured. Narrator will use fallback lines.")
	return gemini
}

func main() {
	log.Println("[SYSTEM-SERVER] Initializing authoritative server...")

	appLogger := logger.NewLogger()
	tune := tuning.DefaultConfig()
	if os.Getenv("LOW_RESOURCE") != "" {
		appLogger.Info("Low-resource tuning profile selected.")
		tune = tuning.LowResourceConfig()
	}

	db, dialect := openDatabase(appLogger)
	db.SetMaxOpenConns(tune.DBMaxOpenConns)
	db.SetMaxIdleConns(tune.DBMaxIdleConns)
	playerRepo, inventoryRepo, chatRepo, eventRepo := buildRepositories(db, dialect)

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(storage.NewEventPersister(eventRepo))

	appLogger.Info("Bootstrapping player cache...")
	playerCache := cache.NewPlayerCache(cache.NewMemoryClient())
	playerStore := &CachedPlayerStore{repo: playerRepo, cache: playerCache}

	appLogger.Info("Bootstrapping session manager...")
	notifier := notify.NewEventNotifier(eventLog)
	manager := engine.NewManager(engine.SystemClock{}, playerStore, inventoryRepo, eventLog, appLogger, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping Narrator (the System's voice)...")
	budgetGate := ai.NewBudgetGate(10.0, 50.0) // $10/day, $50/month safety net
	llmProvider := pickProvider(budgetGate, appLogger)
	voice := narrator.NewNarrator(llmProvider, manager, chatRepo, eventLog, appLogger)
	go voice.Start(ctx)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(manager, voice, appLogger, tune)
	go hub.Run(ctx)
	hub.WatchEventLog(ctx, eventLog)

	recapper := storage.NewRecapper(eventRepo)

	// Setup API Routes
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})

	http.HandleFunc("/metrics", metrics.Handler())
	http.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	http.HandleFunc("/api/recap", func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			http.Error(w, "email parameter required", http.StatusBadRequest)
			return
		}
		entries, err := recapper.GenerateRecap(r.Context(), email, r.URL.Query().Get("since"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"entries": entries})
	})

	http.HandleFunc("/api/chat/history", func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			http.Error(w, "email parameter required", http.StatusBadRequest)
			return
		}
		messages, err := chatRepo.History(r.Context(), email, 50)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"messages": messages})
	})

	// GET reports the live config plus recommendations derived from the
	// metrics snapshot; POST applies them (DB pool limits take effect
	// immediately, buffer sizes on the next restart).
	http.HandleFunc("/api/tuning", func(w http.ResponseWriter, r *http.Request) {
		rec := tuning.Analyze(metrics.Get().Snapshot())
		if r.Method == http.MethodPost {
			tune = tuning.Apply(tune, rec)
			db.SetMaxOpenConns(tune.DBMaxOpenConns)
			db.SetMaxIdleConns(tune.DBMaxIdleConns)
			appLogger.Info("Tuning recommendations applied: %v", rec.Notes)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"config":          tune,
			"recommendations": rec,
			"applied":         r.Method == http.MethodPost,
		})
	})

	http.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"dialect": string(dialect),
			"llm":     llmProvider.Name(),
			"budget":  budgetGate.GetStatus(),
		})
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	go func() {
		log.Printf("[SYSTEM-SERVER] HTTP API & WS Server listening on %s", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[SYSTEM-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[SYSTEM-SERVER] Shutting down...")
	manager.Shutdown(context.Background())
	cancel()
	db.Close()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests for the web client dev server
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
