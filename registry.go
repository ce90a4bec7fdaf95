package main

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Room codes are drawn from an alphabet without easily-confused characters
// (no I/O/0/1). 32 characters at length 4 gives roughly a million codes.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 4
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrGameInProgress = errors.New("game already started")
	ErrRoomFull       = errors.New("room is full")
)

// Registry holds every live room keyed by code, plus the side-table that
// maps each connection to the room it currently occupies. Rooms are fully
// independent of one another; this table is the only shared structure.
type Registry struct {
	cfg       *Config
	clock     clockwork.Clock
	questions []Question

	mu          sync.Mutex
	rooms       map[string]*Room
	memberships map[string]string // connection ID -> room code
}

func newRegistry(cfg *Config, clock clockwork.Clock, questions []Question) *Registry {
	return &Registry{
		cfg:         cfg,
		clock:       clock,
		questions:   questions,
		rooms:       make(map[string]*Room),
		memberships: make(map[string]string),
	}
}

// newCodeLocked generates a crypto-random room code and ensures it doesn't
// collide with a live room. The caller must hold reg.mu.
func (reg *Registry) newCodeLocked() string {
	const max = byte(255 - (256 % len(codeAlphabet)))

	for {
		out := make([]byte, 0, codeLength)
		buf := make([]byte, codeLength*2)

		for len(out) < codeLength {
			if _, err := rand.Read(buf); err != nil {
				panic("crypto/rand failure: " + err.Error())
			}

			for _, b := range buf {
				if b <= max {
					out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
					if len(out) == codeLength {
						break
					}
				}
			}
		}

		code := string(out)
		if _, exists := reg.rooms[code]; !exists {
			return code
		}
	}
}

// createRoom makes a fresh room and joins the creator as its host.
func (reg *Registry) createRoom(c *Client, name string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := reg.newCodeLocked()
	room := newRoom(reg.cfg, reg.clock, reg.questions, code)
	reg.rooms[code] = room
	reg.memberships[c.id] = code

	logf(reg.cfg, "GAMES: Created room %s", code)

	// Cannot fail: the room is empty and not started.
	_ = room.join(c, name)

	return room
}

// joinRoom adds a connection to an existing room. The code is matched
// case-insensitively. Returns one of ErrRoomNotFound, ErrGameInProgress
// or ErrRoomFull on failure.
func (reg *Registry) joinRoom(c *Client, code string, name string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[strings.ToUpper(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}

	if err := room.join(c, name); err != nil {
		return nil, err
	}

	reg.memberships[c.id] = room.code

	return room, nil
}

// lookup resolves the room a connection currently occupies, if any.
func (reg *Registry) lookup(connID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, ok := reg.memberships[connID]
	if !ok {
		return nil
	}

	return reg.rooms[code]
}

// disconnect removes a connection from its room. The room is destroyed the
// moment its roster empties; its timer is cancelled inside leave, so no
// callback can touch the removed room afterwards.
func (reg *Registry) disconnect(c *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, ok := reg.memberships[c.id]
	if !ok {
		return
	}
	delete(reg.memberships, c.id)

	room, ok := reg.rooms[code]
	if !ok {
		return
	}

	if room.leave(c) {
		delete(reg.rooms, code)
		logf(reg.cfg, "GAMES: Destroyed room %s", code)
	}
}
