// ABOUTME: HTTP/WebSocket monitor exposing live relay statistics
// ABOUTME: JSON snapshot on GET /stats, one-second push stream on /ws
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// runMonitor serves relay stats until ctx is cancelled. The monitor is a
// local-network debugging aid; it never touches the registry, only the
// atomic counters.
func (r *Relay) runMonitor(ctx context.Context) {
	upgrader := websocket.Upgrader{
		// Local-network tool; non-browser clients send no Origin at all.
		CheckOrigin: func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(r.Stats())
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			r.log.WithError(err).Warn("monitor upgrade failed")
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteJSON(r.Stats()); err != nil {
					return
				}
			}
		}
	})

	srv := &http.Server{Addr: r.cfg.MonitorAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	r.log.WithField("addr", r.cfg.MonitorAddr).Info("monitor listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		r.log.WithError(err).Error("monitor server failed")
	}
}
