package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"tenantdesk-server/storage"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser origins are filtered by the CORS layer, app clients send none
		return true
	},
}

func inquiryChannel(inquiryID uint) string {
	return fmt.Sprintf("inquiry:%d:events", inquiryID)
}

// publishInquiryEvent fans an event out to every open live socket for the
// inquiry. Events go through Redis pub/sub so they reach sockets held by
// other server instances too.
func publishInquiryEvent(inquiryID uint, event iris.Map) {
	if storage.Redis == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ LIVE ERROR: Failed to marshal event for inquiry %d: %v", inquiryID, err)
		return
	}

	if pubErr := storage.Redis.Publish(context.Background(), inquiryChannel(inquiryID), payload).Err(); pubErr != nil {
		log.Printf("❌ LIVE ERROR: Failed to publish event for inquiry %d: %v", inquiryID, pubErr)
	}
}

// InquiryLive upgrades the request to a WebSocket and streams the inquiry's
// events (new messages, status changes, typing) until the client disconnects.
// The socket is one-way: clients write through the REST endpoints.
func InquiryLive(ctx iris.Context) {
	inquiry := getInquiryAuthorized(ctx)
	if inquiry == nil {
		return
	}

	if storage.Redis == nil {
		ctx.StatusCode(iris.StatusServiceUnavailable)
		return
	}

	conn, upgradeErr := liveUpgrader.Upgrade(ctx.ResponseWriter(), ctx.Request(), nil)
	if upgradeErr != nil {
		log.Printf("❌ LIVE ERROR: WebSocket upgrade failed for inquiry %d: %v", inquiry.ID, upgradeErr)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(iris.Map{"type": "connected", "inquiryID": inquiry.ID}); err != nil {
		return
	}

	wsCtx, cancel := context.WithCancel(ctx.Request().Context())
	defer cancel()

	pubsub := storage.Redis.Subscribe(wsCtx, inquiryChannel(inquiry.ID))
	defer pubsub.Close()

	// Forward published events to the socket
	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-wsCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if writeErr := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); writeErr != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Drain the socket so we notice the client going away
	for {
		if _, _, readErr := conn.ReadMessage(); readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️ LIVE: Socket for inquiry %d closed unexpectedly: %v", inquiry.ID, readErr)
			}
			return
		}
	}
}
