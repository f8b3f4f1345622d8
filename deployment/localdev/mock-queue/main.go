package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"
)

type pendingApproval struct {
	DeviationID string    `json:"deviation_id"`
	StepID      string    `json:"step_id"`
	Role        string    `json:"role"`
	AssignedAt  time.Time `json:"assigned_at"`
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/approvals/pending", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, map[string]any{"items": pendingItems(time.Now().UTC())})
	})

	logger := log.New(log.Writer(), "queue-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           logRequests(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

// pendingItems returns a backlog heavy enough on Plant Director to trigger a
// high_workload bottleneck.
func pendingItems(now time.Time) []pendingApproval {
	items := make([]pendingApproval, 0, 16)
	for i := 0; i < 10; i++ {
		items = append(items, pendingApproval{
			DeviationID: "SDA-2026-" + string(rune('A'+i)),
			StepID:      "7",
			Role:        "Plant Director",
			AssignedAt:  now.Add(-time.Duration(i+1) * 24 * time.Hour),
		})
	}
	items = append(items,
		pendingApproval{DeviationID: "SDA-2026-K", StepID: "3", Role: "R&D Director / Business Line", AssignedAt: now.Add(-36 * time.Hour)},
		pendingApproval{DeviationID: "SDA-2026-K", StepID: "4", Role: "Head of ME", AssignedAt: now.Add(-36 * time.Hour)},
		pendingApproval{DeviationID: "SDA-2026-L", StepID: "5", Role: "ASQE (Buy Part)", AssignedAt: now.Add(-12 * time.Hour)},
		pendingApproval{DeviationID: "SDA-2026-M", StepID: "8", Role: "Product Safety Officer", AssignedAt: now.Add(-6 * time.Hour)},
	)
	return items
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
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
