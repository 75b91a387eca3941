package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func runSessionSuite(t *testing.T, s SessionStore) {
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if token == "" {
		t.Fatal("expected token")
	}

	userID, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("lookup: ok=%v err=%v", ok, err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user id: %q", userID)
	}

	if _, ok, _ := s.GetUserIDByToken("bogus"); ok {
		t.Fatal("unknown token resolved")
	}

	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatal("token survived delete")
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("double delete: %v", err)
	}
}

func TestMemorySessionStore(t *testing.T) {
	runSessionSuite(t, NewMemorySessionStore())
}

func TestRedisSessionStore(t *testing.T) {
	redis := miniredis.RunT(t)
	runSessionSuite(t, NewRedisSessionStore(redis.Addr(), "", time.Hour))
}

func TestRedisSessionExpires(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "", time.Minute)

	token, err := s.NewSession("user-2")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	redis.FastForward(2 * time.Minute)
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatal("session survived TTL")
	}
}
