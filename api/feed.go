package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"churchhub/services"
)

// FeedController serves the live check-in feed over websocket.
type FeedController struct {
	Hub      *services.FeedHub
	Accounts *services.AccountService
}

// NewFeedController creates a feed controller.
func NewFeedController(hub *services.FeedHub, accounts *services.AccountService) *FeedController {
	return &FeedController{Hub: hub, Accounts: accounts}
}

// HandleFeed upgrades the request to a websocket connection and streams
// the actor's church's check-ins until the client disconnects.
func (c *FeedController) HandleFeed(ctx *gin.Context) {
	actor := currentActor(ctx, c.Accounts)
	if actor == nil {
		return
	}

	conn, err := services.Upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Printf("feed upgrade failed: %v", err)
		return
	}

	client := &services.FeedClient{
		ID:       actor.ID,
		ChurchID: actor.ChurchID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}

	if !c.Hub.RegisterClient(client) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"feed connection limit reached"}`))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(c.Hub)
}
