package services

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StartServer starts the HTTP server in the background and returns it for
// graceful shutdown.
func StartServer(r *gin.Engine, port string) *http.Server {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen failed: %s\n", err)
		}
	}()

	log.Println("server listening on port:", port)
	return srv
}
