package server

import (
	"net/http"

	"listingassist/internal/gateway/handler"
	"listingassist/internal/gateway/handler/rpc"
	"listingassist/internal/gateway/middleware"
)

func NewMux(
	conversationHandler *rpc.ConversationHandler,
	healthHandler *handler.HealthHandler,
	allowedOrigins []string,
) http.Handler {
	mux := http.NewServeMux()

	// RPC and websocket handlers
	conversationHandler.Register(mux)

	mux.HandleFunc("/healthz", healthHandler.HandleHealth)

	return middleware.CORS(allowedOrigins, mux)
}
