package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/claude-voice/engine"
	"github.com/claude-voice/engine/audio"
)

var allowedOrigins = []string{
	"http://localhost:5173",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// server bundles the compiler (stateless) with a single audio Manager
// (stateful, mutex-guarded) so stream-control handlers can share it.
type server struct {
	audio *audio.Manager
}

func (s *server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Query == "" {
		writeError(w, http.StatusBadRequest, "missing field: query")
		return
	}

	plan, err := engine.Compile(body.Query)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b, err := engine.MarshalPlan(plan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (s *server) handleCreateStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	cfg := audio.DefaultStreamConfig()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	handle, err := s.audio.CreateStream(cfg)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint32{"handle": uint32(handle)})
}

func parseHandle(r *http.Request) (audio.Handle, error) {
	raw := r.URL.Query().Get("handle")
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid handle: %v", err)
	}
	return audio.Handle(n), nil
}

func (s *server) handleStreamAction(action func(audio.Handle) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		handle, err := parseHandle(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := action(handle); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	handle, err := parseHandle(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h, err := s.audio.GetHealth(handle)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	driver := flag.String("driver", "auto", `audio driver: "auto", "mock", or "hardware"`)
	flag.Parse()

	mgr, err := audio.NewManager(*driver)
	if err != nil {
		fmt.Fprintf(flag.CommandLine.Output(), "audio driver error: %v\n", err)
		return
	}
	if err := mgr.Initialize(); err != nil {
		fmt.Fprintf(flag.CommandLine.Output(), "audio init error: %v\n", err)
		return
	}
	defer mgr.Shutdown()

	s := &server{audio: mgr}

	mux := http.NewServeMux()
	mux.HandleFunc("/compile", s.handleCompile)
	mux.HandleFunc("/streams", s.handleCreateStream)
	mux.HandleFunc("/streams/start", s.handleStreamAction(mgr.Start))
	mux.HandleFunc("/streams/stop", s.handleStreamAction(mgr.Stop))
	mux.HandleFunc("/streams/pause", s.handleStreamAction(mgr.Pause))
	mux.HandleFunc("/streams/resume", s.handleStreamAction(mgr.Resume))
	mux.HandleFunc("/streams/drain", s.handleStreamAction(mgr.Drain))
	mux.HandleFunc("/streams/health", s.handleHealth)

	addr := fmt.Sprintf(":%d", *port)
	fmt.Printf("claude-voice engine server listening on %s\n", addr)
	if err := http.ListenAndServe(addr, corsMiddleware(mux)); err != nil {
		fmt.Fprintf(flag.CommandLine.Output(), "server error: %v\n", err)
	}
}
