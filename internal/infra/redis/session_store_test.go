package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"olympiad-quiz-service/internal/app"
	"olympiad-quiz-service/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := app.NewSession("s1", domain.QuizRequest{
		Subject: domain.SubjectIMO,
		Topics:  []string{"Algebra"},
		Count:   1,
		Grade:   domain.Grade6,
	}, nil)
	store.Put(session)

	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session present")
	}
	if !mr.Exists("quizapp:session:s1") {
		t.Fatalf("expected redis liveness key to be set")
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
	if mr.Exists("quizapp:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
}
