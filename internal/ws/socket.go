package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"geier/internal/game"
)

const lobbyRoom = "lobby"

// Server is the socket.io transport boundary. It owns the mapping from
// connection ids to live connections; the engine only ever sees the opaque
// ids. It also implements game.Notifier for timer-initiated pushes.
type Server struct {
	Registry *game.Registry

	mu    sync.Mutex
	conns map[string]socketio.Conn // connection id -> conn
	io    *socketio.Server
}

func New(rm *game.Registry) *Server {
	return &Server{Registry: rm, conns: make(map[string]socketio.Conn)}
}

// Mount attaches the socket.io server with all game event handlers to the
// given gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.io = io

	io.OnConnect("/", func(s socketio.Conn) error {
		srv.addConn(s)
		s.Join(lobbyRoom)
		s.Emit("list games", srv.Registry.ListJoinable())
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "create game", func(s socketio.Conn) {
		if _, err := srv.Registry.SessionFor(s.ID()); err == nil {
			srv.err(s, "already_in_session", "Can't create a session while in one")
			return
		}
		sess := srv.Registry.Create()
		log.Info().Str("sid", s.ID()).Str("session", sess.ID).Msg("create game")
		srv.joinSession(s, sess.ID)
	})

	io.OnEvent("/", "join game", func(s socketio.Conn, sessionID string) {
		log.Info().Str("sid", s.ID()).Str("session", sessionID).Msg("join game")
		srv.joinSession(s, sessionID)
	})

	io.OnEvent("/", "leave game", func(s socketio.Conn) {
		log.Info().Str("sid", s.ID()).Msg("leave game")
		srv.leaveSession(s, false)
	})

	io.OnEvent("/", "ready", func(s socketio.Conn) {
		srv.setReady(s, true)
	})

	io.OnEvent("/", "unready", func(s socketio.Conn) {
		srv.setReady(s, false)
	})

	io.OnEvent("/", "make bet", func(s socketio.Conn, card int) {
		sess, err := srv.Registry.SessionFor(s.ID())
		if err != nil {
			srv.err(s, "not_in_session", "Can't bet when not in a session")
			return
		}
		closed, _, err := sess.PlaceBet(s.ID(), card)
		if err != nil {
			srv.err(s, "bad_bet", err.Error())
			return
		}
		log.Info().Str("sid", s.ID()).Str("session", sess.ID).Int("card", card).Msg("make bet")
		if closed != nil {
			io.BroadcastToRoom("/", sess.ID, "next round", closed)
		}
		srv.pushGame(sess.ID)
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		srv.removeConn(s)
		srv.leaveSession(s, true)
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// CORS preflight for socket.io POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) joinSession(s socketio.Conn, sessionID string) {
	sess, err := srv.Registry.Join(s.ID(), sessionID)
	if err != nil {
		srv.err(s, "join_failed", err.Error())
		return
	}
	s.Leave(lobbyRoom)
	s.Join(sess.ID)
	srv.pushGame(sess.ID)
	srv.pushLobby()
}

// leaveSession handles both the explicit command and a disconnect; the two
// are identical except that a disconnected socket gets no emits.
func (srv *Server) leaveSession(s socketio.Conn, disconnected bool) {
	sess, res, err := srv.Registry.Leave(s.ID())
	if err != nil {
		if !disconnected {
			srv.err(s, "not_in_session", "Can't leave a session when not in one")
		}
		return
	}
	if !disconnected {
		s.Leave(sess.ID)
		s.Emit("game update", nil)
		s.Join(lobbyRoom)
		s.Emit("list games", srv.Registry.ListJoinable())
	}
	if !res.Empty {
		if res.Closed != nil {
			srv.io.BroadcastToRoom("/", sess.ID, "next round", res.Closed)
		}
		srv.pushGame(sess.ID)
	}
	srv.pushLobby()
}

func (srv *Server) setReady(s socketio.Conn, ready bool) {
	sess, err := srv.Registry.SessionFor(s.ID())
	if err != nil {
		srv.err(s, "not_in_session", "Can't ready when not in a session")
		return
	}
	started, err := sess.SetReady(s.ID(), ready)
	if err != nil {
		srv.err(s, "bad_ready", err.Error())
		return
	}
	log.Info().Str("sid", s.ID()).Str("session", sess.ID).Bool("ready", ready).Msg("ready state")
	srv.pushGame(sess.ID)
	if started {
		srv.pushLobby()
	}
}

// pushGame recomputes and delivers the masked snapshot to every member of
// the session individually.
func (srv *Server) pushGame(sessionID string) {
	sess, err := srv.Registry.Get(sessionID)
	if err != nil {
		return
	}
	for _, playerID := range sess.PlayerIDs() {
		c := srv.conn(playerID)
		if c == nil {
			continue
		}
		c.Emit("game update", sess.SnapshotFor(playerID))
	}
}

// pushLobby sends the joinable-session list to every lobby-resident
// connection.
func (srv *Server) pushLobby() {
	srv.io.BroadcastToRoom("/", lobbyRoom, "list games", srv.Registry.ListJoinable())
}

// SessionUpdated implements game.Notifier for timer-driven mutations.
func (srv *Server) SessionUpdated(sessionID string) {
	srv.pushGame(sessionID)
}

// RoundClosed implements game.Notifier.
func (srv *Server) RoundClosed(sessionID string, round game.Round) {
	srv.io.BroadcastToRoom("/", sessionID, "next round", round)
}

func (srv *Server) addConn(s socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.conns[s.ID()] = s
}

func (srv *Server) removeConn(s socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	delete(srv.conns, s.ID())
}

func (srv *Server) conn(id string) socketio.Conn {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.conns[id]
}

func (srv *Server) err(s socketio.Conn, code, message string) {
	log.Warn().Str("sid", s.ID()).Str("code", code).Msg(message)
	s.Emit("error", map[string]any{"code": code, "message": message})
}
