package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/menta2k/image-annotator/pkg/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func testPayload() types.Payload {
	return types.NewPayload(
		"data:image/png;base64,AAAA",
		[]types.Box{{
			Rect: types.Rect{X1: 10, Y1: 20, X2: 110, Y2: 120},
			Name: "fox",
			Date: types.NewDate(2024, time.May, 1),
		}},
		types.GeoPosition{Lat: -34.6037, Lng: -58.3816},
	)
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	rec := NewRecord(testPayload())
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "fox", got.Payload.Boxes[0].Name)
	assert.Equal(t, "2024-05-01", got.Payload.Boxes[0].Date.String())
	require.NotNil(t, got.Payload.Latitude)
	assert.Equal(t, -34.6037, *got.Payload.Latitude)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, ids)

	_, err = s.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirStore(t *testing.T) {
	s, err := NewDirStore(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestDirStoreRejectsPathIDs(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDirStore(dir)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "../secret")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Save(context.Background(), &Record{ID: "../x"})
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0644))
	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore(t *testing.T) {
	client, _ := setupTestRedis(t)
	exerciseStore(t, NewRedisStore(client, 0))
}

func TestRedisStoreExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	rec := NewRecord(testPayload())
	require.NoError(t, s.Save(ctx, rec))
	assert.Equal(t, time.Hour, mr.TTL(recordKeyPrefix+rec.ID))

	mr.FastForward(2 * time.Hour)

	_, err := s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSaveFillsMissingID(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := NewRedisStore(client, 0)

	rec := &Record{Payload: testPayload()}
	require.NoError(t, s.Save(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
}
