package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"orrfdash/internal/cache"
	"orrfdash/internal/services"
)

// Server serves the JSON API over a loaded dataset. Search and word-cloud
// responses are memoized in LRU caches that a dataset reload purges.
type Server struct {
	http.Server
	reports     *services.Reports
	rateLimiter *rateLimiter

	searchCache    *cache.LRUCache[[]services.SearchResult]
	wordCloudCache *cache.LRUCache[[]services.WordCount]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 120 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 120
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, reports *services.Reports, cacheSize int, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		reports:          reports,
		rateLimiter:      newRateLimiter(),
		searchCache:      cache.NewLRUCache[[]services.SearchResult](cacheSize, cacheTTL),
		wordCloudCache:   cache.NewLRUCache[[]services.WordCount](10, cacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/summary", s.withAPIHeaders(s.handleSummary))
	mux.HandleFunc("/api/entities", s.withAPIHeaders(s.handleEntityList))
	mux.HandleFunc("/api/entities/", s.withAPIHeaders(s.handleEntity))
	mux.HandleFunc("/api/categories", s.withAPIHeaders(s.handleCategories))
	mux.HandleFunc("/api/top-spenders", s.withAPIHeaders(s.handleTopSpenders))
	mux.HandleFunc("/api/collaboratives", s.withAPIHeaders(s.handleCollaboratives))
	mux.HandleFunc("/api/grants", s.withAPIHeaders(s.handleGrants))
	mux.HandleFunc("/api/search", s.withAPIHeaders(s.handleSearch))
	mux.HandleFunc("/api/search/years", s.withAPIHeaders(s.handleSearchYears))
	mux.HandleFunc("/api/wordcloud", s.withAPIHeaders(s.handleWordCloud))
	mux.HandleFunc("/api/unresolved-names", s.withAPIHeaders(s.handleUnresolvedNames))

	mux.HandleFunc("/api/state/summary", s.withAPIHeaders(s.handleStateSummary))
	mux.HandleFunc("/api/state/departments", s.withAPIHeaders(s.handleStateDepartments))
	mux.HandleFunc("/api/state/vendors", s.withAPIHeaders(s.handleStateVendors))
	mux.HandleFunc("/api/state/object-classes", s.withAPIHeaders(s.handleStateObjectClasses))
	mux.HandleFunc("/api/state/years", s.withAPIHeaders(s.handleStateYears))
	mux.HandleFunc("/api/state/search", s.withAPIHeaders(s.handleStateSearch))

	return s
}

// PurgeCaches drops every memoized response. The refresh worker calls this
// after swapping in a new dataset snapshot.
func (s *Server) PurgeCaches() {
	s.searchCache.Purge()
	s.wordCloudCache.Purge()
	slog.Info("Response caches purged")
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			searchCleaned := s.searchCache.CleanExpired()
			cloudCleaned := s.wordCloudCache.CleanExpired()
			if searchCleaned > 0 || cloudCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"search_entries_removed", searchCleaned,
					"wordcloud_entries_removed", cloudCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withAPIHeaders adds security headers, rate limiting, and request logging.
func (s *Server) withAPIHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready only once the dataset snapshot is in memory.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.reports.Store().Loaded() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("dataset not loaded"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
