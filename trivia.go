// Triviabox websocket transport
//
// A single websocket endpoint serves every room. Each connection gets an
// opaque ID on upgrade; the first message either creates a room or joins
// one by code, and the registry routes every later message to the room the
// connection occupies.
//
// Features:
// - Lobby flow: create-room replies with a fresh 4-character code,
//   join-room matches codes case-insensitively
// - Join failures (unknown code, game in progress, room full) are replied
//   only to the requesting client, never broadcast
// - Unauthorized or stale actions are dropped without a reply
// - In-browser QR button to share a room join link, backed by go-qrcode

package main

import (
	_ "embed"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

type Client struct {
	id   string
	conn *websocket.Conn
	send chan any
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func joinErrorText(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, ErrGameInProgress):
		return "Game already started"
	case errors.Is(err, ErrRoomFull):
		return "Room is full (max 12)"
	default:
		return "Unable to join room"
	}
}

// reply sends a message to this client only, dropping it if the client's
// outbound buffer is stuck.
func (c *Client) reply(msg any) {
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) readPump(reg *Registry) {
	defer func() {
		reg.disconnect(c)
		close(c.send)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "create-room":
			name := strings.TrimSpace(msg.Name)
			if name == "" || reg.lookup(c.id) != nil {
				continue
			}

			room := reg.createRoom(c, name)
			c.reply(RoomJoinedMessage{
				Type: "room-joined",
				Code: room.code,
				ID:   c.id,
			})

		case "join-room":
			name := strings.TrimSpace(msg.Name)
			if name == "" || reg.lookup(c.id) != nil {
				continue
			}

			room, err := reg.joinRoom(c, msg.Code, name)
			if err != nil {
				c.reply(ErrorMessage{
					Type:    "error",
					Message: joinErrorText(err),
				})
				continue
			}

			c.reply(RoomJoinedMessage{
				Type: "room-joined",
				Code: room.code,
				ID:   c.id,
			})

		case "start-game":
			if room := reg.lookup(c.id); room != nil {
				room.start(c.id)
			}

		case "submit-answer":
			if msg.Answer == nil {
				continue
			}
			if room := reg.lookup(c.id); room != nil {
				room.submitAnswer(c.id, *msg.Answer)
			}

		case "next-question":
			if room := reg.lookup(c.id); room != nil {
				room.next(c.id)
			}

		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func serveWS(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: websocket upgrade from %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			id:   uuid.NewString(),
			conn: conn,
			send: make(chan any, 8),
		}

		go client.writePump()
		client.readPump(reg)
	}
}

// QR handler: generates a PNG QR code for a room join link using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := strings.ToUpper(ps.ByName("code"))
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/trivia?code=" + code

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// ---- Static file paths ----

//go:embed trivia/index.html
var triviaHTML []byte

//go:embed trivia/app.css
var triviaCSS []byte

//go:embed trivia/app.js
var triviaJS []byte

func staticHandler(cfg *Config, contentType string, data []byte) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(data)
	}
}

// registerTriviaGame sets up routes so that:
//   - $path          → HTML client (lobby, joins via ?code=)
//   - $path/ws       → shared websocket endpoint
//   - $path/qr/:code → PNG QR code linking to the join page
func registerTriviaGame(cfg *Config, path string, mux *httprouter.Router, reg *Registry) {
	mux.GET(cfg.prefix+path, staticHandler(cfg, "text/html; charset=utf-8", triviaHTML))

	// Shared assets
	mux.GET(cfg.prefix+"/assets/trivia/app.css", staticHandler(cfg, "text/css; charset=utf-8", triviaCSS))
	mux.GET(cfg.prefix+"/assets/trivia/app.js", staticHandler(cfg, "text/javascript; charset=utf-8", triviaJS))

	// Shared websocket endpoint
	mux.GET(cfg.prefix+path+"/ws", serveWS(cfg, reg))

	// Per-room QR code
	mux.GET(cfg.prefix+path+"/qr/:code", qrHandler(cfg))
}
