// Command mock-github is a tiny stand-in for the GitHub REST API, for local
// webhook testing without a token. Point GITHUB_API at it via config.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

type pullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
}

type comment struct {
	ID      int    `json:"id"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

type commentStore struct {
	mu     sync.Mutex
	nextID int
	items  []comment
}

func main() {
	store := &commentStore{nextID: 1}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// GET /repos/{owner}/{repo}/pulls
	// POST /repos/{owner}/{repo}/issues/{number}/comments
	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		switch {
		case len(parts) == 4 && parts[3] == "pulls" && r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, []pullRequest{
				{Number: 17, Title: "Ship the checkout fix", State: "open"},
			})
		case len(parts) == 6 && parts[3] == "issues" && parts[5] == "comments" && r.Method == http.MethodPost:
			var payload struct {
				Body string `json:"body"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "invalid body"})
				return
			}
			store.mu.Lock()
			id := store.nextID
			store.nextID++
			c := comment{
				ID:      id,
				Body:    payload.Body,
				HTMLURL: fmt.Sprintf("http://localhost:9400/%s/%s/pull/%s#issuecomment-%d", parts[1], parts[2], parts[4], id),
			}
			store.items = append(store.items, c)
			store.mu.Unlock()
			log.Printf("comment posted on %s/%s#%s (%d bytes)", parts[1], parts[2], parts[4], len(payload.Body))
			writeJSON(w, http.StatusCreated, c)
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		}
	})

	logger := log.New(log.Writer(), "github-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":9400",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :9400")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
