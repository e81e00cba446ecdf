package common

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"autobazar/listing-editor/internal/auth"
	"autobazar/listing-editor/internal/models/dtos"

	"github.com/golang-jwt/jwt/v5"
)

func newTestQueryCache() *QueryCache {
	return NewQueryCache(NewCacheService(time.Minute, time.Minute), time.Minute, nil)
}

func TestQueryCache_FetchCachesResult(t *testing.T) {
	q := newTestQueryCache()
	var loads int32
	load := func(ctx context.Context) ([]dtos.ReferenceEntity, error) {
		atomic.AddInt32(&loads, 1)
		return []dtos.ReferenceEntity{{ID: 7, Name: "Toyota"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(context.Background(), q, BrandsKey(), time.Hour, load)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if len(got) != 1 || got[0].Name != "Toyota" {
			t.Errorf("Unexpected result %+v", got)
		}
	}
	if loads != 1 {
		t.Errorf("Expected 1 load, got %d", loads)
	}
}

func TestQueryCache_FetchSharesConcurrentLoads(t *testing.T) {
	q := newTestQueryCache()
	var loads int32
	release := make(chan struct{})
	load := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := Fetch(context.Background(), q, "K", 0, load); err != nil || v != 42 {
				t.Errorf("Fetch = %d, %v", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if loads > 2 {
		t.Errorf("Expected loads to be shared, got %d", loads)
	}
}

func TestQueryCache_FetchErrorNotCached(t *testing.T) {
	q := newTestQueryCache()
	boom := errors.New("boom")

	_, err := Fetch(context.Background(), q, "K", 0, func(ctx context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if _, ok := q.GetData("K"); ok {
		t.Error("Failed loads must not be cached")
	}
}

func TestQueryCache_CancelDropsInFlightResult(t *testing.T) {
	q := newTestQueryCache()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		Fetch(context.Background(), q, MyListingsKey(), 0, func(ctx context.Context) ([]dtos.ListingSummary, error) {
			close(started)
			<-release
			return []dtos.ListingSummary{{ID: 1}}, nil
		})
	}()

	<-started
	q.Cancel(MyListingsKey())
	close(release)
	<-done

	if _, ok := q.GetData(MyListingsKey()); ok {
		t.Error("Cancelled refetch must not write to the cache")
	}
}

func TestQueryCache_SnapshotRestoreByteForByte(t *testing.T) {
	q := newTestQueryCache()
	original := []byte(`[{"id":1,"title":"Camry","price":100,"year":2019,"onSale":true},{"id":2,"title":"Supra","price":1,"year":1998,"onSale":false}]`)
	q.SetData(MyListingsKey(), original, time.Hour)

	snap := q.Snapshot(MyListingsKey(), LikedListingsKey())

	err := Update(q, MyListingsKey(), func(in []dtos.ListingSummary) []dtos.ListingSummary {
		return in[1:]
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	q.SetData(LikedListingsKey(), []byte(`[]`), time.Hour)

	q.Restore(snap)

	got, _ := q.GetData(MyListingsKey())
	if !bytes.Equal(got, original) {
		t.Errorf("Restore changed bytes:\n got %s\nwant %s", got, original)
	}
	if _, ok := q.GetData(LikedListingsKey()); ok {
		t.Error("Key absent at snapshot time must be absent after restore")
	}
}

func TestQueryCache_InvalidatePrefix(t *testing.T) {
	q := newTestQueryCache()
	q.SetData(DetailKey(1), []byte(`{}`), 0)
	q.SetData(DetailKey(2), []byte(`{}`), 0)
	q.SetData(BrandsKey(), []byte(`[]`), 0)

	q.Invalidate("LISTING_DETAIL_")

	if _, ok := q.GetData(DetailKey(1)); ok {
		t.Error("Expected detail 1 to be invalidated")
	}
	if _, ok := q.GetData(DetailKey(2)); ok {
		t.Error("Expected detail 2 to be invalidated")
	}
	if _, ok := q.GetData(BrandsKey()); !ok {
		t.Error("Brands must survive")
	}
}

func TestCacheKeys(t *testing.T) {
	right := true
	tests := []struct {
		got  string
		want string
	}{
		{ModelsKey(7), "REF_MODELS_7"},
		{YearsKey(dtos.YearsQuery{BrandID: 7, ModelID: 42}), "REF_YEARS_7:42:any"},
		{BodyTypesKey(dtos.BodyTypesQuery{BrandID: 7, ModelID: 42, Year: 2019, SteeringSide: &right}), "REF_BODY_TYPES_7:42:2019:R"},
		{DetailKey(555), "LISTING_DETAIL_555"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
	if keyPattern("REF_MODELS_7") != "REF_MODELS_" {
		t.Errorf("Unexpected pattern %q", keyPattern("REF_MODELS_7"))
	}
	if keyPattern("LISTINGS_MINE_ON_SALE") != "LISTINGS_MINE_ON_SALE" {
		t.Errorf("Expected the longest prefix to win")
	}
}

func TestSessionStore_RoundTrip(t *testing.T) {
	cache := NewCacheService(time.Minute, time.Minute)
	store := NewSessionStore(cache)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "exp": time.Now().Add(time.Hour).Unix()})
	access, _ := tok.SignedString([]byte("k"))
	tokens := auth.Tokens{AccessToken: access, RefreshToken: "r"}

	session := auth.NewSession(nil)
	if err := session.Begin(tokens); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := store.Save(session, tokens); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	resumed := auth.NewSession(nil)
	if !store.Resume(resumed) {
		t.Fatal("Expected session to resume")
	}
	if resumed.UserID() != "u-1" {
		t.Errorf("Expected u-1, got %q", resumed.UserID())
	}

	store.Delete()
	if store.Resume(auth.NewSession(nil)) {
		t.Error("Expected no session after delete")
	}
}

func TestNotificationQueue_DrainAndLimit(t *testing.T) {
	q := NewNotificationQueue(2)
	q.Notify(dtos.Notification{Level: LevelInfo, Message: "a"})
	q.Notify(dtos.Notification{Level: LevelInfo, Message: "b"})
	q.Notify(dtos.Notification{Level: LevelError, Message: "c"})

	got := q.Drain()
	if len(got) != 2 || got[0].Message != "b" || got[1].Message != "c" {
		t.Errorf("Unexpected notifications %+v", got)
	}
	if q.Pending() != 0 {
		t.Errorf("Expected empty queue after drain")
	}
}
