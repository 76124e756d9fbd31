package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/ticket"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
)

// TicketHandler issues single-use WebSocket tickets to authenticated
// users. Redemption happens on the internal surface; the realtime service
// consumes the ticket during the upgrade handshake.
type TicketHandler struct {
	Broker *ticket.Broker
}

func (h *TicketHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())
	username := httpx.UsernameFromCtx(r.Context())

	id, err := h.Broker.Issue(r.Context(), userID, username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"ticket":     id,
		"expires_in": int(h.Broker.TTL() / time.Second),
	})
}
