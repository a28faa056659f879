package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

const sessionCookieName = "user_session"

type botService interface {
	ChooseMove(board entity.Board, difficulty entity.Difficulty, botMark entity.Mark) (int, bool)
}

type scoreRepo interface {
	Load(ctx context.Context, profileID string) (entity.Score, error)
	Save(ctx context.Context, profileID string, score entity.Score) error
	Increment(ctx context.Context, profileID string, result entity.Result) (entity.Score, error)
}

// Settings - what every new connection starts with.
type Settings struct {
	Mode         entity.GameMode
	Difficulty   entity.Difficulty
	SoundEnabled bool
	ThinkDelay   time.Duration
}

type handlerFunc func(ctx context.Context, conn *client, msg *Message) error

type Server struct {
	logger *slog.Logger

	botService botService
	scoreRepo  scoreRepo
	settings   Settings

	upgrader    websocket.Upgrader
	handlers    map[string]handlerFunc
	connections sync.WaitGroup
}

func New(logger *slog.Logger, botService botService, scoreRepo scoreRepo, settings Settings) *Server {
	server := &Server{
		logger:     logger.With("component", "websocket"),
		botService: botService,
		scoreRepo:  scoreRepo,
		settings:   settings,

		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionGameState] = server.handleGameState
	server.handlers[actionGameMove] = server.handleGameMove
	server.handlers[actionGameReset] = server.handleGameReset
	server.handlers[actionGameMode] = server.handleGameMode
	server.handlers[actionGameDifficulty] = server.handleGameDifficulty
	server.handlers[actionScoreReset] = server.handleScoreReset
	server.handlers[actionSoundToggle] = server.handleSoundToggle

	return server
}

func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server, it stops when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return that.Serve(ctx, listener)
}

// Serve - returns once the server is shut down and every connection has finished.
// Upgraded connections are hijacked, so http.Server.Shutdown does not wait for them.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-shutdownDone
	that.connections.Wait()

	return nil
}

// upgradeToWebSocket - upgrades the connection and runs its session until the client leaves.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	that.connections.Add(1)
	defer that.connections.Done()

	profileID, header := that.sessionCookie(req)

	conn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	// unblocks the read loop on shutdown
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	connection := newClient(that.logger, conn, profileID)
	connection.manager = that.newGameManager(connection)
	defer connection.manager.Close()

	unsubscribe := connection.manager.Subscribe(connection.onEvent)
	defer unsubscribe()

	log.Info("WebSocket connection established", "profileID", profileID)

	if err = connection.sendState(ctx); err != nil {
		log.Error("failed to send initial state", "error", err)
		return
	}

	if err = that.handleMessages(ctx, connection); err != nil && ctx.Err() == nil {
		log.Error("error handling messages", "error", err)
	}

	log.Info("WebSocket connection closed", "profileID", profileID)
}

// sessionCookie - the profile id comes from the cookie, a new one is issued when it is missing or malformed.
func (that *Server) sessionCookie(req *http.Request) (string, http.Header) {
	if cookie, err := req.Cookie(sessionCookieName); err == nil && pkg.IsValidSessionID(cookie.Value) {
		return cookie.Value, nil
	}

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    pkg.GenerateNewSessionID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	header := http.Header{}
	header.Add("Set-Cookie", cookie.String())

	return cookie.Value, header
}

func (that *Server) newGameManager(connection *client) *usecase.GameManager {
	return usecase.NewGameManager(
		connection.logger,
		tictactoe.NewSession(that.settings.Mode, that.settings.Difficulty),
		that.botService,
		service.NewScoreService(connection.logger, that.scoreRepo, connection.profileID),
		service.NewSoundService(connection.logger, connection, that.settings.SoundEnabled),
		usecase.WithThinkDelay(that.settings.ThinkDelay),
	)
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, connection *client) error {
	log := that.logger.With("method", "handleMessages")

	conn := connection.conn
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go that.keepAlive(connection, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			log.Warn("malformed message", "error", err)
			if err = connection.sendErrorResponse("", apperror.ErrInvalidPayload.Error()); err != nil {
				return err
			}
			continue
		}

		if err = that.processMessage(ctx, connection, &msg); err != nil {
			return err
		}
	}
}

func (that *Server) keepAlive(connection *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := connection.ping(); err != nil {
				that.logger.Debug("failed to ping client", "error", err)
				return
			}
		}
	}
}

func (that *Server) processMessage(ctx context.Context, connection *client, msg *Message) error {
	handler, ok := that.handlers[msg.Action]
	if !ok {
		return connection.sendErrorResponse(msg.Action, apperror.ErrUnknownAction.Error())
	}

	return handler(ctx, connection, msg)
}
