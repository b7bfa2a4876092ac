// Package ws pushes game snapshots to seated players over WebSocket and
// accepts their intents on the same connection.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/KirkDiggler/megapoly/internal/auth"
	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/models"
	"github.com/KirkDiggler/megapoly/internal/services/game"
	"github.com/KirkDiggler/megapoly/schemas"
)

const (
	writeTimeout = 5 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second

	// errorQueue bounds error frames waiting behind snapshots
	errorQueue = 8
)

// Message types
const (
	TypeSnapshot = "snapshot"
	TypeIntent   = "intent"
	TypeError    = "error"
)

// ServerMessage is every frame the server sends
type ServerMessage struct {
	Type   string       `json:"type"`
	Game   *models.Game `json:"game,omitempty"`
	Code   apperr.Code  `json:"code,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// ClientMessage is every frame a client sends
type ClientMessage struct {
	Type   string         `json:"type"`
	Action *models.Action `json:"action,omitempty"`
}

// Config holds the configuration for the WebSocket server
type Config struct {
	GameService game.Service
	Tokens      *auth.Issuer

	// AllowedOrigins lists browser origins; empty allows any
	AllowedOrigins []string

	Logger *zap.SugaredLogger
}

// Server upgrades /ws requests into game subscriptions
type Server struct {
	gameService game.Service
	tokens      *auth.Issuer
	origins     []string
	log         *zap.SugaredLogger
	upgrader    websocket.Upgrader
	intents     *jsonschema.Schema
}

// NewServer creates a WebSocket server
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.GameService == nil {
		return nil, errors.New("game service cannot be nil")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token issuer cannot be nil")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	intents, err := schemas.Compile(schemas.Intent)
	if err != nil {
		return nil, err
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		gameService: cfg.GameService,
		tokens:      cfg.Tokens,
		origins:     origins,
		log:         log,
		intents:     intents,
	}
	policy := cors.New(cors.Options{AllowedOrigins: origins})
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || policy.OriginAllowed(r)
		},
	}
	return s, nil
}

// Handler returns the HTTP handler serving /ws
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Authorization"},
	})
	return c.Handler(mux)
}

func (s *Server) serveWS(rw http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.FromBearer(r.Header.Get("Authorization"))
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		writeHTTPError(rw, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := s.gameService.Subscribe(ctx, &game.SubscribeInput{GameID: claims.GameID, Buffer: 1})
	if err != nil {
		writeHTTPError(rw, err)
		return
	}
	defer sub.Cancel()

	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.log.Debugw("WebSocket upgrade failed", "game_id", claims.GameID, "error", err)
		return
	}
	defer conn.Close()

	s.log.Infow("Player connected", "game_id", claims.GameID, "player_id", claims.PlayerID)
	defer s.log.Infow("Player disconnected", "game_id", claims.GameID, "player_id", claims.PlayerID)

	errs := make(chan ServerMessage, errorQueue)

	// Writer goroutine.
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		// Unblocks the reader once writing stops
		defer conn.Close()
		s.writeLoop(ctx, conn, sub.Updates, errs)
	}()

	s.readLoop(ctx, conn, claims, errs)
	cancel()
	<-done
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, updates <-chan *models.Game, errs <-chan ServerMessage) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case g, ok := <-updates:
			if !ok {
				// Game destroyed
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "game closed"),
					time.Now().Add(time.Second))
				return
			}
			if err := writeJSON(conn, ServerMessage{Type: TypeSnapshot, Game: g}); err != nil {
				return
			}
		case msg := <-errs:
			if err := writeJSON(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, claims *auth.Claims, errs chan<- ServerMessage) {
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))

		msg, err := s.decode(raw)
		if err != nil {
			s.reply(errs, err)
			continue
		}

		// The applied snapshot reaches this connection through the subscription
		_, err = s.gameService.SubmitAction(ctx, &game.SubmitActionInput{
			GameID:   claims.GameID,
			PlayerID: claims.PlayerID,
			Action:   *msg.Action,
		})
		if err != nil {
			if apperr.CodeOf(err) == apperr.CodeInternal {
				s.log.Errorw("Intent failed", "game_id", claims.GameID, "player_id", claims.PlayerID, "error", err)
			}
			s.reply(errs, err)
		}
	}
}

// decode parses and validates one client frame
func (s *Server) decode(raw []byte) (*ClientMessage, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperr.InvalidIntent("malformed message")
	}
	if err := s.intents.Validate(doc); err != nil {
		return nil, apperr.InvalidIntent("expected an intent with an action (%s)", schemas.Reason(err))
	}

	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, apperr.InvalidIntent("malformed message")
	}
	return &msg, nil
}

func (s *Server) reply(errs chan<- ServerMessage, err error) {
	msg := ServerMessage{
		Type:   TypeError,
		Code:   apperr.CodeOf(err),
		Reason: apperr.ReasonOf(err),
	}
	select {
	case errs <- msg:
	default:
		s.log.Warnw("Dropping error frame for slow client", "code", msg.Code)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func writeHTTPError(rw http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code.HTTPStatus())
	_ = json.NewEncoder(rw).Encode(ServerMessage{
		Type:   TypeError,
		Code:   code,
		Reason: apperr.ReasonOf(err),
	})
}
