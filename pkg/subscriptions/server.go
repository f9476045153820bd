package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gametag/assassin/pkg/auth/providers"
	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/gametag/assassin/pkg/log"
	"github.com/gametag/assassin/pkg/messages"
	"github.com/gametag/assassin/pkg/notifications"
)

// WSServer accepts WebSocket connections and manages subscription
// registrations for connected clients.
type WSServer struct {
	port         int
	tls          *TLSConfig
	authProvider providers.AuthProvider
	manager      *SubscriberManager
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewWSServerOptions struct {
	Port         int
	TLS          *TLSConfig
	AuthProvider providers.AuthProvider
	Manager      *SubscriberManager
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		port:         opts.Port,
		tls:          opts.TLS,
		authProvider: opts.AuthProvider,
		manager:      opts.Manager,
	}
}

// shutdownTimeout bounds how long in-flight connections may drain after
// the server context is cancelled.
const shutdownTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Start starts the WebSocket server.
func (s *WSServer) Start(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		claims, err := s.authProvider.VerifyToken(r.Context(), token)
		if err != nil {
			log.Debug("Rejected WebSocket connection from %s: %v", r.RemoteAddr, err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		log.Debug("New WebSocket connection from %s", conn.RemoteAddr().String())
		go s.handleWSConnection(ctx, conn, gametypes.PlayerID(claims.UID))
	})

	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		// the parent context is already cancelled; give in-flight
		// connections their own window to drain
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("WebSocket server shutdown error: %v", err)
		}
	}()

	var listenAndServe func() error
	if s.tls != nil {
		log.Info("WebSocket server listening on %s with TLS", addr)
		listenAndServe = func() error {
			return server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("WebSocket server listening on %s", addr)
		listenAndServe = server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return
		}
		log.Error("WebSocket server error: %v", err)
	}
}

// handleWSConnection handles a WebSocket connection.
func (s *WSServer) handleWSConnection(ctx context.Context, conn *websocket.Conn, uid gametypes.PlayerID) {
	subscriber, err := s.manager.AddSubscriber(conn, uid)
	if err != nil {
		log.Error("Failed to add subscriber: %v", err)
		conn.Close()
		return
	}

	defer func() {
		s.manager.RemoveSubscriber(subscriber.ID)
		conn.Close()
	}()

	for {
		msg, err := ReadMessageFromWS(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading WebSocket message from %s: %v", conn.RemoteAddr().String(), err)
			}
			log.Trace("Connection closed for %s", conn.RemoteAddr().String())
			return
		}

		s.handleMessage(subscriber, msg)
	}
}

// handleMessage processes a subscribe or unsubscribe request from a
// connected subscriber.
func (s *WSServer) handleMessage(subscriber *Subscriber, msg *messages.Message) {
	switch msg.Type {
	case messages.MessageTypeClientSubscribe:
		request := &messages.ClientSubscribe{}
		if err := json.Unmarshal(msg.Payload, request); err != nil {
			log.Error("Failed to unmarshal subscribe request: %v", err)
			s.sendError(subscriber, "invalid subscribe request")
			return
		}
		playerID := gametypes.PlayerID(request.PlayerID)
		if playerID != "" && playerID != subscriber.UID {
			s.sendError(subscriber, "cannot subscribe on behalf of another player")
			return
		}
		if playerID == "" {
			playerID = subscriber.UID
		}
		subscriber.AddSubscription(notifications.Subscription{
			GameID:   gametypes.GameID(request.GameID),
			PlayerID: playerID,
		})
		s.sendAck(subscriber)
	case messages.MessageTypeClientUnsubscribe:
		request := &messages.ClientUnsubscribe{}
		if err := json.Unmarshal(msg.Payload, request); err != nil {
			log.Error("Failed to unmarshal unsubscribe request: %v", err)
			s.sendError(subscriber, "invalid unsubscribe request")
			return
		}
		playerID := gametypes.PlayerID(request.PlayerID)
		if playerID == "" {
			playerID = subscriber.UID
		}
		subscriber.RemoveSubscription(notifications.Subscription{
			GameID:   gametypes.GameID(request.GameID),
			PlayerID: playerID,
		})
		s.sendAck(subscriber)
	default:
		log.Warn("Received unexpected message type from subscriber %d: %s", subscriber.ID, msg.Type)
		s.sendError(subscriber, fmt.Sprintf("unexpected message type: %s", msg.Type))
	}
}

func (s *WSServer) sendAck(subscriber *Subscriber) {
	if err := subscriber.Send(&messages.Message{Type: messages.MessageTypeServerAck}); err != nil {
		log.Error("Failed to send ack to subscriber %d: %v", subscriber.ID, err)
	}
}

func (s *WSServer) sendError(subscriber *Subscriber, message string) {
	if err := subscriber.SendError(message); err != nil {
		log.Error("Failed to send error to subscriber %d: %v", subscriber.ID, err)
	}
}

// ReadMessageFromWS reads a Message from a WebSocket connection
func ReadMessageFromWS(conn *websocket.Conn) (*messages.Message, error) {
	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	msg, err := messages.DeserializeMessage(message)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return msg, nil
}
