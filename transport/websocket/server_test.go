package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
)

type testServer struct {
	url       string
	scoreRepo repository.ScoreRepository
}

func startServer(t *testing.T, settings Settings) testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scoreRepo := repository.NewMemoryScoreRepository()
	server := New(logger, service.NewBotService(service.NewSeededRandom(1)), scoreRepo, settings)

	httpServer := httptest.NewServer(server.Handler(ctx))
	t.Cleanup(httpServer.Close)

	return testServer{
		url:       "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws",
		scoreRepo: scoreRepo,
	}
}

func dial(t *testing.T, url string, header http.Header) (*websocket.Conn, *http.Response) {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, resp
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: data}))
}

func receive(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func receiveState(t *testing.T, conn *websocket.Conn) StatePayload {
	t.Helper()

	msg := receive(t, conn)
	require.Equal(t, actionGameState, msg.Action)

	var state StatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &state))

	return state
}

var quietPvP = Settings{
	Mode:       entity.ModePvP,
	Difficulty: entity.HardDifficulty,
	ThinkDelay: 10 * time.Millisecond,
}

func TestServer_Connect(t *testing.T) {
	t.Run("New client gets a session cookie and the initial state", func(t *testing.T) {
		// Given: a running server
		srv := startServer(t, quietPvP)

		// When: a client connects without a cookie
		conn, resp := dial(t, srv.url, nil)

		// Then: a session cookie is issued and the empty board is pushed
		var sessionCookie *http.Cookie
		for _, cookie := range resp.Cookies() {
			if cookie.Name == sessionCookieName {
				sessionCookie = cookie
			}
		}
		require.NotNil(t, sessionCookie)
		assert.NotEmpty(t, sessionCookie.Value)

		state := receiveState(t, conn)
		assert.Equal(t, entity.Board{}, state.Game.Board)
		assert.Equal(t, entity.PlayerX, state.Game.CurrentPlayer)
		assert.Equal(t, entity.ModePvP, state.Game.Mode)
		assert.Equal(t, entity.Score{}, state.Score)
	})

	t.Run("Known cookie keeps its score", func(t *testing.T) {
		// Given: a profile with a stored score
		srv := startServer(t, quietPvP)
		profileID := "0b8f6a1c-3a9e-4c49-9e55-0c5d2f1e7a10"
		require.NoError(t, srv.scoreRepo.Save(context.Background(), profileID, entity.Score{X: 3, Draws: 1}))

		// When: the client reconnects with its cookie
		header := http.Header{}
		header.Set("Cookie", sessionCookieName+"="+profileID)
		conn, resp := dial(t, srv.url, header)

		// Then: no new cookie is issued and the stored score is shown
		assert.Empty(t, resp.Header.Values("Set-Cookie"))
		assert.Equal(t, entity.Score{X: 3, Draws: 1}, receiveState(t, conn).Score)
	})
}

func TestServer_GameMove(t *testing.T) {
	t.Run("Move is pushed back as state", func(t *testing.T) {
		srv := startServer(t, quietPvP)
		conn, _ := dial(t, srv.url, nil)
		receiveState(t, conn)

		send(t, conn, actionGameMove, Payload{Cell: intPtr(4)})

		state := receiveState(t, conn)
		assert.Equal(t, entity.PlayerX, state.Game.Board[4])
		assert.Equal(t, entity.PlayerO, state.Game.CurrentPlayer)
		require.Len(t, state.Game.Moves, 1)
		assert.Equal(t, 1, state.Game.Moves[0].Seq)
	})

	t.Run("Occupied cell answers with the unchanged state", func(t *testing.T) {
		srv := startServer(t, quietPvP)
		conn, _ := dial(t, srv.url, nil)
		receiveState(t, conn)
		send(t, conn, actionGameMove, Payload{Cell: intPtr(4)})
		receiveState(t, conn)

		send(t, conn, actionGameMove, Payload{Cell: intPtr(4)})

		state := receiveState(t, conn)
		assert.Equal(t, entity.PlayerO, state.Game.CurrentPlayer)
		assert.Len(t, state.Game.Moves, 1)
	})

	t.Run("Missing cell is an error", func(t *testing.T) {
		srv := startServer(t, quietPvP)
		conn, _ := dial(t, srv.url, nil)
		receiveState(t, conn)

		send(t, conn, actionGameMove, Payload{})

		msg := receive(t, conn)
		assert.Equal(t, actionError, msg.Action)
	})

	t.Run("Bot answers in pvc", func(t *testing.T) {
		// Given: a pvc game with a hard bot
		settings := quietPvP
		settings.Mode = entity.ModePvC
		srv := startServer(t, settings)
		conn, _ := dial(t, srv.url, nil)
		receiveState(t, conn)

		// When: the human takes a corner
		send(t, conn, actionGameMove, Payload{Cell: intPtr(0)})

		// Then: the human move and then the bot's centre reply are pushed
		human := receiveState(t, conn)
		assert.Equal(t, entity.PlayerX, human.Game.Board[0])

		bot := receiveState(t, conn)
		assert.Equal(t, entity.PlayerO, bot.Game.Board[4])
		assert.Equal(t, entity.PlayerX, bot.Game.CurrentPlayer)
	})

	t.Run("Win updates the stored score", func(t *testing.T) {
		// Given: a pvp game
		srv := startServer(t, quietPvP)
		conn, resp := dial(t, srv.url, nil)
		receiveState(t, conn)

		// When: X completes the left column
		var state StatePayload
		for _, cell := range []int{0, 1, 3, 4, 6} {
			send(t, conn, actionGameMove, Payload{Cell: intPtr(cell)})
			state = receiveState(t, conn)
		}

		// Then: the game is won and the score was saved for the profile
		assert.Equal(t, entity.StatusWon, state.Game.Status)
		assert.Equal(t, []int{0, 3, 6}, state.Game.WinningLine)
		assert.Equal(t, entity.Score{X: 1}, state.Score)

		profileID := resp.Cookies()[0].Value
		score, err := srv.scoreRepo.Load(context.Background(), profileID)
		require.NoError(t, err)
		assert.Equal(t, entity.Score{X: 1}, score)
	})
}

func TestServer_Settings(t *testing.T) {
	t.Run("Mode and difficulty are applied", func(t *testing.T) {
		srv := startServer(t, quietPvP)
		conn, _ := dial(t, srv.url, nil)
		receiveState(t, conn)

		send(t, conn, actionGameDifficulty, Payload{Difficulty: "easy"})
		assert.Equal(t, entity.EasyDifficulty, receiveState(t, conn).Game.Difficulty)

		send(t, conn, actionGameMode, Payload{Mode: "pvc"})
		assert.Equal(t, entity.ModePvC, receiveState(t, conn).Game.Mode)
	})

	t.Run("Unknown mode is an error", func(t *testing.T) {
		srv := startServer(t, quietPvP)
		conn, _ := dial(t, srv.url, nil)
		receiveState(t, conn)

		send(t, conn, actionGameMode, Payload{Mode: "online"})

		msg := receive(t, conn)
		require.Equal(t, actionError, msg.Action)

		var payload ErrorPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, actionGameMode, payload.Action)
		assert.Contains(t, payload.Error, "unknown game mode")
	})

	t.Run("Reset clears the board", func(t *testing.T) {
		srv := startServer(t, quietPvP)
		conn, _ := dial(t, srv.url, nil)
		receiveState(t, conn)
		send(t, conn, actionGameMove, Payload{Cell: intPtr(2)})
		receiveState(t, conn)

		send(t, conn, actionGameReset, nil)

		state := receiveState(t, conn)
		assert.Equal(t, entity.Board{}, state.Game.Board)
		assert.Empty(t, state.Game.Moves)
	})

	t.Run("Score reset zeroes the score", func(t *testing.T) {
		srv := startServer(t, quietPvP)
		profileID := "6c2f1d2e-8a34-4b7e-b0f1-7d9a3c5e2b44"
		require.NoError(t, srv.scoreRepo.Save(context.Background(), profileID, entity.Score{O: 2}))
		header := http.Header{}
		header.Set("Cookie", sessionCookieName+"="+profileID)
		conn, _ := dial(t, srv.url, header)
		receiveState(t, conn)

		send(t, conn, actionScoreReset, nil)

		assert.Equal(t, entity.Score{}, receiveState(t, conn).Score)
	})

	t.Run("Unknown action is an error", func(t *testing.T) {
		srv := startServer(t, quietPvP)
		conn, _ := dial(t, srv.url, nil)
		receiveState(t, conn)

		send(t, conn, "game:join", nil)

		assert.Equal(t, actionError, receive(t, conn).Action)
	})

	t.Run("Malformed message is an error and the connection survives", func(t *testing.T) {
		srv := startServer(t, quietPvP)
		conn, _ := dial(t, srv.url, nil)
		receiveState(t, conn)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		assert.Equal(t, actionError, receive(t, conn).Action)

		send(t, conn, actionGameState, nil)
		receiveState(t, conn)
	})
}

func TestServer_Sound(t *testing.T) {
	t.Run("Cues are sent before the state", func(t *testing.T) {
		// Given: sound on
		settings := quietPvP
		settings.SoundEnabled = true
		srv := startServer(t, settings)
		conn, _ := dial(t, srv.url, nil)
		assert.True(t, receiveState(t, conn).SoundEnabled)

		// When: a move is played
		send(t, conn, actionGameMove, Payload{Cell: intPtr(0)})

		// Then: the move tone arrives, then the new state
		msg := receive(t, conn)
		require.Equal(t, actionSoundPlay, msg.Action)

		var sound struct {
			Cue   service.Cue `json:"cue"`
			Tones []struct {
				Frequency  float64 `json:"frequency"`
				DurationMS int64   `json:"duration_ms"`
			} `json:"tones"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &sound))
		assert.Equal(t, service.CueMove, sound.Cue)
		require.Len(t, sound.Tones, 1)
		assert.InDelta(t, 800, sound.Tones[0].Frequency, 0.001)
		assert.Equal(t, int64(100), sound.Tones[0].DurationMS)

		receiveState(t, conn)
	})

	t.Run("Toggle mutes cues", func(t *testing.T) {
		settings := quietPvP
		settings.SoundEnabled = true
		srv := startServer(t, settings)
		conn, _ := dial(t, srv.url, nil)
		receiveState(t, conn)

		send(t, conn, actionSoundToggle, Payload{Enabled: boolPtr(false)})
		assert.False(t, receiveState(t, conn).SoundEnabled)

		send(t, conn, actionGameMove, Payload{Cell: intPtr(0)})
		assert.Equal(t, actionGameState, receive(t, conn).Action)
	})
}

func intPtr(value int) *int {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func TestServer_Serve(t *testing.T) {
	t.Run("Returns only after open connections are closed", func(t *testing.T) {
		// Given: a served listener with a connected client
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		server := New(logger, service.NewBotService(service.NewSeededRandom(1)), repository.NewMemoryScoreRepository(), quietPvP)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		served := make(chan error, 1)
		go func() {
			served <- server.Serve(ctx, listener)
		}()

		conn, _ := dial(t, "ws://"+listener.Addr().String()+"/ws", nil)
		receiveState(t, conn)

		// When: the server context is canceled
		cancel()

		// Then: Serve returns and the client sees its connection dropped
		select {
		case err = <-served:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Serve did not return after shutdown")
		}

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = conn.ReadMessage()
		require.Error(t, err)

		var netErr net.Error
		if errors.As(err, &netErr) {
			assert.False(t, netErr.Timeout(), "connection was left open")
		}
	})
}
