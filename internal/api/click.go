package api

import (
	"encoding/json"
	"net/http"

	"locpulse/pkg/bridge"
	"locpulse/pkg/model"
)

// ClickHandler receives notification click callbacks from the platform and
// forwards them to the click router.
type ClickHandler struct {
	router *bridge.ClickRouter
}

// NewClickHandler creates a ClickHandler.
func NewClickHandler(router *bridge.ClickRouter) *ClickHandler {
	return &ClickHandler{router: router}
}

// HandleClick routes one click. The body is a ClickIntent; an empty action
// means the notification body was clicked.
func (h *ClickHandler) HandleClick(w http.ResponseWriter, r *http.Request) {
	var intent model.ClickIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		http.Error(w, "invalid click payload", http.StatusBadRequest)
		return
	}
	switch intent.Action {
	case model.ActionUpdate, model.ActionClose, model.ActionDefault:
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	h.router.Click(intent)
	w.WriteHeader(http.StatusNoContent)
}
