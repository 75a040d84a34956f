package http

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/loreleaf/loreleaf/internal/logger"
)

// eventStreamBuffer is the per-connection subscription buffer. A client
// that cannot keep up misses events rather than stalling the engine.
const eventStreamBuffer = 64

func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error().Err(err).Str("func", "*Handler.streamEvents").Msg("websocket upgrade failed")
		return
	}

	events, unsubscribe := h.engine.Subscribe(eventStreamBuffer)
	defer unsubscribe()

	// CloseRead drains the client's read side and cancels the returned
	// context once the client goes away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "engine closed")
				return
			}
			if err := wsjson.Write(ctx, conn, event); err != nil {
				log.Warn().Err(err).Str("func", "*Handler.streamEvents").Msg("websocket write failed")
				return
			}
		}
	}
}
