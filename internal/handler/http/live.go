package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shiftdesk/timeclock-backend-go/internal/handler/http/response"
	"github.com/shiftdesk/timeclock-backend-go/internal/service/worktime"
)

type LiveHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type liveHandlerImpl struct {
	liveService *worktime.LiveService
}

func NewLiveHandler(liveService *worktime.LiveService) LiveHandler {
	return &liveHandlerImpl{
		liveService: liveService,
	}
}

// Stream implements LiveHandler. Worked-hours snapshots go out as
// server-sent events until the client disconnects or checks out.
func (h *liveHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for snap := range h.liveService.Stream(r.Context(), userID) {
		payload, err := json.Marshal(snap)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", snap.Event, payload)
		flusher.Flush()
	}
}
