package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "github.com/roguedev-ai/kasmchannelgpt-sub002/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates the chi router with all of the application's routes.
func NewRouter(widgetHandler *WidgetHandler) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- Public Routes ---
	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	// Liveness check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// --- API Version 1 Routes ---
	r.Route("/api/v1", func(r chi.Router) {

		// Plain JSON routes get a request timeout.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// --- Widgets ---
			r.Get("/widgets", widgetHandler.ListWidgets)
			r.Post("/widgets", widgetHandler.CreateWidget)
			r.Get("/widgets/{instanceID}", widgetHandler.GetWidget)
			r.Delete("/widgets/{instanceID}", widgetHandler.DeleteWidget)
			r.Patch("/widgets/{instanceID}/config", widgetHandler.UpdateWidgetConfig)
			r.Post("/widgets/{instanceID}/open", widgetHandler.OpenWidget)
			r.Post("/widgets/{instanceID}/close", widgetHandler.CloseWidget)
			r.Post("/widgets/{instanceID}/toggle", widgetHandler.ToggleWidget)
			r.Post("/widgets/{instanceID}/refresh", widgetHandler.RefreshWidget)
			r.Post("/widgets/{instanceID}/cancel", widgetHandler.CancelStream)

			// --- Conversations ---
			r.Get("/widgets/{instanceID}/conversations", widgetHandler.ListConversations)
			r.Post("/widgets/{instanceID}/conversations", widgetHandler.CreateConversation)
			r.Put("/widgets/{instanceID}/conversations/{conversationID}/title", widgetHandler.UpdateConversationTitle)
			r.Delete("/widgets/{instanceID}/conversations/{conversationID}", widgetHandler.DeleteConversation)
			r.Post("/widgets/{instanceID}/conversations/{conversationID}/switch", widgetHandler.SwitchConversation)

			// --- Messages ---
			r.Get("/widgets/{instanceID}/conversations/{conversationID}/messages", widgetHandler.GetMessages)
			r.Put("/widgets/{instanceID}/conversations/{conversationID}/messages/{messageID}/feedback", widgetHandler.UpdateMessageFeedback)
		})

		// Long-running streaming endpoints must NOT have a timeout.
		r.Group(func(r chi.Router) {
			r.Post("/widgets/{instanceID}/messages", widgetHandler.HandleSendMessage)
			r.Post("/widgets/{instanceID}/regenerate", widgetHandler.HandleRegenerate)
			r.Get("/widgets/{instanceID}/events", widgetHandler.HandleEvents)
		})
	})

	return r
}
