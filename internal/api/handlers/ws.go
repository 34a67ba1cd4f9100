package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true }, // CORS 전면 허용과 동일
}

// StreamScreen upgrades to a websocket and pushes the screen on connect and
// every refresh interval. 매 푸시는 독립 조회 (캐시 없음).
// GET /ws/screen/{name}?interval=60s&...screen params
func (h *ScreenHandler) StreamScreen(refresh time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		if !h.allowed[name] {
			respondError(w, http.StatusNotFound, "unknown screen: "+name)
			return
		}

		params, err := ParseParams(r.URL.Query(), h.defaults)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		interval := refresh
		if v := r.URL.Query().Get("interval"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d < time.Second {
				respondError(w, http.StatusBadRequest, "invalid interval: "+v)
				return
			}
			interval = d
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.WithError(err).Warn("WebSocket upgrade failed")
			return
		}
		defer conn.Close()

		ctx := r.Context()
		log := h.logger.WithField("screen", name)
		log.Debug("WebSocket client connected")

		// 클라이언트 종료 감지 (읽기 루프)
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		push := func() bool {
			payload := dataResponse{Data: h.run(ctx, name, params)}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(payload); err != nil {
				log.WithError(err).Debug("WebSocket write failed")
				return false
			}
			return true
		}

		if !push() {
			return
		}

		refreshTicker := time.NewTicker(interval)
		defer refreshTicker.Stop()
		pingTicker := time.NewTicker(pingPeriod)
		defer pingTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-closed:
				log.Debug("WebSocket client disconnected")
				return
			case <-refreshTicker.C:
				if !push() {
					return
				}
			case <-pingTicker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}
}
