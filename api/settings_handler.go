package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/services"
)

type settingsHandler struct {
	responder Responder
	logger    zerolog.Logger
	settings  *services.SettingsService
}

func newSettingsHandler(settings *services.SettingsService) settingsHandler {
	logger := log.With().Str("handlerName", "settingsHandler").Logger()
	return settingsHandler{
		responder: NewResponder(logger),
		logger:    logger,
		settings:  settings,
	}
}

func (h settingsHandler) saveSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.SettingsInput
		if err := decodeJSON(w, r, maxSmallBodyBytes, "settings", &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		settings, err := h.settings.Save(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, settings)
	}
}
