package main

import (
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"streamscout/api"
	"streamscout/config"
	"streamscout/handlers"
	"streamscout/internal/database"
	"streamscout/models"
	"streamscout/services/accounts"
	"streamscout/services/childsafety"
	"streamscout/services/history"
	"streamscout/services/lists"
	"streamscout/services/sessions"
	"streamscout/services/tmdb"
	"streamscout/utils"
)

func main() {
	configPath := flag.String("config", "./data/config.json", "path to the settings file")
	flag.Parse()

	manager := config.NewManager(*configPath)
	settings, err := manager.Load()
	if err != nil {
		log.Fatalf("[main] load config: %v", err)
	}
	if err := os.MkdirAll(settings.DataDir, 0o755); err != nil {
		log.Fatalf("[main] create data dir: %v", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   settings.LogPath(),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}))

	db, err := database.NewDB(database.Config{DatabasePath: settings.DatabasePath()})
	if err != nil {
		log.Fatalf("[main] open database: %v", err)
	}
	defer db.Close()

	historySvc := history.NewService(database.NewSearchHistoryRepository(db.Connection()))

	listsSvc, err := lists.NewService(settings.DataDir)
	if err != nil {
		log.Fatalf("[main] lists service: %v", err)
	}

	accountsSvc, err := accounts.NewService(settings.DataDir)
	if err != nil {
		log.Fatalf("[main] accounts service: %v", err)
	}
	if pw, ok := accountsSvc.BootstrapPassword(); ok {
		log.Printf("[main] master account created, username %q password %q - change it after first login", "admin", pw)
	}

	sessionsSvc, err := sessions.NewService(settings.DataDir, time.Duration(settings.SessionDurationDays)*24*time.Hour)
	if err != nil {
		log.Fatalf("[main] sessions service: %v", err)
	}

	if settings.TMDB.APIKey == "" {
		log.Printf("[main] no TMDB API key configured, searches will fail until one is set")
	}
	tmdbClient := tmdb.NewClient(settings.TMDB.APIKey, settings.TMDB.Language, settings.CacheDir(), settings.TMDB.CacheTTLHours, nil)
	upstream := tmdb.NewSafeUpstream(tmdbClient, childsafety.DefaultPolicy())

	searchHandler := handlers.NewSearchHandler(upstream, historySvc, listsSvc, settings.ChildSafetyDefault)
	authHandler := handlers.NewAuthHandler(accountsSvc, sessionsSvc, searchHandler)
	historyHandler := handlers.NewHistoryHandler(historySvc)
	listsHandler := handlers.NewListsHandler(listsSvc)
	settingsHandler := handlers.NewSettingsHandler(manager)

	router := utils.NewRouter()

	// Login and guest issuance are the only unauthenticated endpoints, so
	// they get per-IP rate limits.
	loginLimiter := api.NewIPRateLimiter(rate.Every(12*time.Second), 5)
	router.Handle("/api/auth/login", api.RateLimitHandler(loginLimiter, http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost)
	router.Handle("/api/auth/guest", api.RateLimitHandler(loginLimiter, http.HandlerFunc(authHandler.Guest))).Methods(http.MethodPost)

	authed := router.PathPrefix("/api").Subrouter()
	authed.Use(api.SessionAuthMiddleware(sessionsSvc))

	authed.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/auth/session", authHandler.Session).Methods(http.MethodGet)
	authed.HandleFunc("/auth/password", authHandler.UpdatePassword).Methods(http.MethodPut)

	authed.HandleFunc("/search", searchHandler.State).Methods(http.MethodGet)
	authed.HandleFunc("/search", searchHandler.Search).Methods(http.MethodPost)
	authed.HandleFunc("/search/input", searchHandler.Input).Methods(http.MethodPost)
	authed.HandleFunc("/search/more", searchHandler.More).Methods(http.MethodPost)
	authed.HandleFunc("/search/all", searchHandler.All).Methods(http.MethodPost)
	authed.HandleFunc("/search/filters", searchHandler.SetFilters).Methods(http.MethodPut)
	authed.HandleFunc("/search/childsafety", searchHandler.SetChildSafety).Methods(http.MethodPut)
	authed.HandleFunc("/search/results", searchHandler.ClearResults).Methods(http.MethodDelete)
	authed.HandleFunc("/search/clear", searchHandler.ClearSearch).Methods(http.MethodPost)

	authed.HandleFunc("/history", historyHandler.List).Methods(http.MethodGet)
	authed.HandleFunc("/history", historyHandler.Clear).Methods(http.MethodDelete)

	authed.HandleFunc("/lists/{kind}", listsHandler.List).Methods(http.MethodGet)
	authed.HandleFunc("/lists/{kind}", listsHandler.Add).Methods(http.MethodPost)
	authed.HandleFunc("/lists/{kind}/toggle", listsHandler.Toggle).Methods(http.MethodPost)
	authed.HandleFunc("/lists/{kind}/{mediaType}/{id}", listsHandler.Remove).Methods(http.MethodDelete)

	admin := authed.NewRoute().Subrouter()
	admin.Use(api.MasterOnlyMiddleware())
	admin.HandleFunc("/accounts", authHandler.ListAccounts).Methods(http.MethodGet)
	admin.HandleFunc("/accounts", authHandler.CreateAccount).Methods(http.MethodPost)
	admin.HandleFunc("/accounts/{id}", authHandler.DeleteAccount).Methods(http.MethodDelete)
	admin.HandleFunc("/settings", settingsHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/settings", settingsHandler.Update).Methods(http.MethodPut)

	go janitor(sessionsSvc, historySvc, listsSvc, searchHandler)

	srv := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("[main] listening on %s", settings.ListenAddr)
	log.Fatal(srv.ListenAndServe())
}

// janitor periodically expires sessions and tears down the state of users
// that no longer hold one.
func janitor(sessionsSvc *sessions.Service, historySvc *history.Service, listsSvc *lists.Service, searchHandler *handlers.SearchHandler) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		orphaned := sessionsSvc.Cleanup()
		for _, userID := range orphaned {
			// Only guest state is session-scoped; account data stays.
			if !models.IsGuestUserID(userID) {
				continue
			}
			historySvc.DropGuest(userID)
			if err := listsSvc.DropUser(userID); err != nil {
				log.Printf("[main] drop lists for %s: %v", userID, err)
			}
		}
		historySvc.PruneGuests(sessionsSvc.LiveUserIDs())
		if dropped := searchHandler.PruneIdle(2 * time.Hour); dropped > 0 {
			log.Printf("[main] pruned %d idle search sessions", dropped)
		}
	}
}
