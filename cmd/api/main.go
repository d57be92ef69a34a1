package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"stocksync/internal/catalog"
	apphttp "stocksync/internal/http"
	"stocksync/internal/httpx"
	"stocksync/internal/lock"
	"stocksync/internal/metrics"
	"stocksync/internal/platform/woocommerce"
	"stocksync/internal/stock"
)

func main() {
	_ = godotenv.Load(".env.local")

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	serverAddress := getEnv("APP_ADDR", ":8080")
	storeURL := mustGetEnv(log, "WC_STORE_URL")
	consumerKey := mustGetEnv(log, "WC_CONSUMER_KEY")
	consumerSecret := mustGetEnv(log, "WC_CONSUMER_SECRET")
	jwtSecret := mustGetEnv(log, "JWT_SECRET")
	adminUsername := getEnv("ADMIN_USERNAME", "admin")
	adminPasswordHash := mustGetEnv(log, "ADMIN_PASSWORD_HASH")

	scanCfg := catalog.ScanConfig{
		PageSize: getEnvInt("WC_PAGE_SIZE", 100),
		MaxPages: getEnvInt("WC_MAX_PAGES", 50),
	}
	stockCfg := stock.DefaultConfig()
	stockCfg.Capacity.Multiplier = getEnvFloat("CAPACITY_MULTIPLIER", catalog.DefaultCapacityMultiplier)

	client := woocommerce.NewClient(storeURL, consumerKey, consumerSecret, getEnvInt("WC_RPS", 5))
	m := metrics.New()

	filter := catalog.NewFilter(client, scanCfg, log)
	matcher := catalog.NewMatcher(client, scanCfg, log)
	reconciler := stock.NewReconciler(client, stockCfg, log)
	locks := lock.NewKeyed()

	productHandler := apphttp.NewProductHandler(filter, matcher, client, reconciler, m)
	stockHandler := apphttp.NewStockHandler(reconciler, locks, m)
	authHandler := apphttp.NewAuthHandler(jwtSecret, adminUsername, adminPasswordHash, 12*time.Hour)

	authRequired := httpx.AuthMiddleware(jwtSecret)

	router := http.NewServeMux()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.HandleFunc("/auth/login", authHandler.Login)

	router.HandleFunc("/products", productHandler.List)
	router.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/products/match" && r.Method == http.MethodPost:
			productHandler.Match(w, r)
		case r.URL.Path == "/products/match-by-name" && r.Method == http.MethodPost:
			productHandler.MatchByName(w, r)
		case r.URL.Path == "/products/details" && r.Method == http.MethodPost:
			productHandler.Details(w, r)
		case r.Method == http.MethodPut:
			authRequired(http.HandlerFunc(productHandler.UpdateDetails)).ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})

	router.Handle("/stock/", authRequired(stockHandler))

	handler := httpx.RequestIDMiddleware(
		httpx.AccessLogMiddleware(log)(
			httpx.RecoveryMiddleware(log)(router),
		),
	)

	httpServer := &http.Server{
		Addr:         serverAddress,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // full-catalog scans can be slow
		IdleTimeout:  60 * time.Second,
	}

	log.WithField("addr", serverAddress).Info("starting server")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server error")
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustGetEnv(log *logrus.Logger, key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	log.Fatalf("missing required environment variable: %s", key)
	return ""
}
