package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/moodlog/moodlog-be/internal/api/handlers"
	"github.com/moodlog/moodlog-be/internal/auth"
	"github.com/moodlog/moodlog-be/internal/services"
	"github.com/moodlog/moodlog-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	tokens *auth.TokenService,
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	entryService services.EntryServiceProvider,
	eventService services.EventServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, tokens, eventService)
	entryHandler := handlers.NewEntryHandler(entryService, eventService)
	eventHandler := handlers.NewEventHandler(eventService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// Liveness check, any method
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Public endpoints
	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)

	// Protected endpoints
	r.Group(func(r chi.Router) {
		r.Use(tokens.Middleware)

		r.Get("/protected", userHandler.Protected)
		r.Delete("/deleteuser/{username}", userHandler.Delete)

		r.Route("/entry", func(r chi.Router) {
			r.Post("/", entryHandler.Create)
			r.Get("/", entryHandler.GetLatest)
			r.Delete("/", entryHandler.DeleteLatest)
			r.Put("/{id}", entryHandler.Update)
		})
		r.Get("/entrylist", entryHandler.List)

		r.Get("/events", eventHandler.Recent)
		r.Get("/ws", wsHandler.Serve)
	})

	return r
}
