package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
)

func TestRoomCodes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := newRegistry(testConfig(), clock, testQuestions())

	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		c := newTestClient(fmt.Sprintf("conn-%d", i))
		room := reg.createRoom(c, "Player")

		if len(room.code) != codeLength {
			t.Fatalf("code %q has wrong length", room.code)
		}
		for _, char := range room.code {
			if !strings.ContainsRune(codeAlphabet, char) {
				t.Fatalf("code %q contains %q, not in alphabet", room.code, char)
			}
		}
		if seen[room.code] {
			t.Fatalf("duplicate code %q among live rooms", room.code)
		}
		seen[room.code] = true
	}
}

func TestJoinUnknownCode(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := newRegistry(testConfig(), clock, testQuestions())

	c := newTestClient("c")
	if _, err := reg.joinRoom(c, "ZZZZ", "Player"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestJoinCaseInsensitive(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := newRegistry(testConfig(), clock, testQuestions())

	host := newTestClient("host")
	room := reg.createRoom(host, "Host")

	c := newTestClient("c")
	joined, err := reg.joinRoom(c, strings.ToLower(room.code), "Player")
	if err != nil {
		t.Fatalf("lowercase join failed: %v", err)
	}
	if joined != room {
		t.Error("lowercase code resolved to a different room")
	}
}

func TestJoinAfterStart(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := newRegistry(testConfig(), clock, testQuestions())

	host := newTestClient("host")
	room := reg.createRoom(host, "Host")
	room.start(host.id)

	c := newTestClient("c")
	if _, err := reg.joinRoom(c, room.code, "Late"); !errors.Is(err, ErrGameInProgress) {
		t.Errorf("expected ErrGameInProgress, got %v", err)
	}
}

func TestRoomFull(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := newRegistry(testConfig(), clock, testQuestions())

	host := newTestClient("conn-0")
	room := reg.createRoom(host, "Player 0")

	for i := 1; i < maxPlayersPerRoom; i++ {
		c := newTestClient(fmt.Sprintf("conn-%d", i))
		if _, err := reg.joinRoom(c, room.code, fmt.Sprintf("Player %d", i)); err != nil {
			t.Fatalf("join %d failed: %v", i, err)
		}
	}

	extra := newTestClient("conn-12")
	if _, err := reg.joinRoom(extra, room.code, "Unlucky"); !errors.Is(err, ErrRoomFull) {
		t.Errorf("expected ErrRoomFull, got %v", err)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if len(room.players) != maxPlayersPerRoom {
		t.Errorf("expected %d players, got %d", maxPlayersPerRoom, len(room.players))
	}
}

func TestRoomDestroyedWhenEmpty(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := newRegistry(testConfig(), clock, testQuestions())

	host := newTestClient("host")
	room := reg.createRoom(host, "Host")

	other := newTestClient("other")
	if _, err := reg.joinRoom(other, room.code, "Other"); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	// Start a game so a timer is outstanding when the room empties.
	room.start(host.id)
	clock.Advance(leadInDelay)
	waitFor(t, func() bool {
		room.mu.Lock()
		defer room.mu.Unlock()
		return room.currentQuestion == 0
	})

	reg.disconnect(host)
	reg.disconnect(other)

	reg.mu.Lock()
	_, roomExists := reg.rooms[room.code]
	memberships := len(reg.memberships)
	reg.mu.Unlock()

	if roomExists {
		t.Error("empty room still registered")
	}
	if memberships != 0 {
		t.Errorf("expected no memberships, got %d", memberships)
	}

	// The reveal timer was cancelled with the room; letting the deadline
	// pass must not resurrect anything.
	clock.Advance(testConfig().questionTime + revealSlack)

	room.mu.Lock()
	revealed := room.revealed
	room.mu.Unlock()
	if revealed {
		t.Error("cancelled timer revealed a destroyed room's question")
	}

	// The code is unknown again.
	c := newTestClient("c")
	if _, err := reg.joinRoom(c, room.code, "Player"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound after destroy, got %v", err)
	}
}

func TestLookupByConnection(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := newRegistry(testConfig(), clock, testQuestions())

	host := newTestClient("host")
	room := reg.createRoom(host, "Host")

	if got := reg.lookup(host.id); got != room {
		t.Error("lookup did not resolve the host's room")
	}

	stranger := newTestClient("stranger")
	if got := reg.lookup(stranger.id); got != nil {
		t.Error("lookup resolved a room for an unknown connection")
	}

	reg.disconnect(host)

	if got := reg.lookup(host.id); got != nil {
		t.Error("lookup resolved a room after disconnect")
	}
}

func TestConnectionInSingleRoom(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := newRegistry(testConfig(), clock, testQuestions())

	a := newTestClient("a")
	first := reg.createRoom(a, "Alice")

	b := newTestClient("b")
	second := reg.createRoom(b, "Bob")

	if got := reg.lookup(a.id); got != first {
		t.Error("connection mapped to the wrong room")
	}
	if got := reg.lookup(b.id); got != second {
		t.Error("connection mapped to the wrong room")
	}
}
