package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"jobradar/internal/model"
	"jobradar/internal/notify"
)

func TestRedisNotifierPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, notify.DefaultChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	n := notify.NewRedisNotifier(rdb, "")
	err := n.Notify(ctx, []model.Candidate{
		{Title: "Go Developer", Link: "https://x/1", QualityScore: 8},
		{Title: "SRE", Link: "https://x/2", QualityScore: 6},
	}, "high")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var payload struct {
			Tier       string            `json:"tier"`
			Candidates []model.Candidate `json:"candidates"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload.Tier != "high" || len(payload.Candidates) != 2 {
			t.Errorf("payload = %+v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no digest received")
	}
}

func TestRedisNotifierSkipsEmptyDigest(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	n := notify.NewRedisNotifier(rdb, "custom")
	if err := n.Notify(context.Background(), nil, "high"); err != nil {
		t.Errorf("empty Notify returned %v", err)
	}
}
