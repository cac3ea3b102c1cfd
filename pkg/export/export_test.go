package export

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/types"
)

func testPayload() types.Payload {
	return types.NewPayload(
		"data:image/png;base64,AAAA",
		[]types.Box{
			{Rect: types.Rect{X1: 200, Y1: 200, X2: 300, Y2: 260}, Name: "Fox", Date: types.NewDate(2024, time.May, 1)},
		},
		types.GeoPosition{Lat: -34.6037, Lng: -58.3816},
	)
}

func TestSaveLocalFixedName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	opts := LocalOptions{Dir: dir, Format: "png"}

	path, err := SaveLocal(processing.NewProcessor(), image.NewNRGBA(image.Rect(0, 0, 8, 8)), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "annotated_image.png"), path)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLocalPathFollowsFormat(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "annotated_image.jpg"), LocalPath(LocalOptions{Dir: "out", Format: "jpeg"}))
	assert.Equal(t, filepath.Join("out", "annotated_image.webp"), LocalPath(LocalOptions{Dir: "out", Format: "webp"}))
}

func TestClientSaveSendsPayload(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/save_annotation", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/", 0)
	require.NoError(t, err)
	require.NoError(t, client.Save(context.Background(), testPayload()))

	assert.Equal(t, "data:image/png;base64,AAAA", received["image"])
	assert.Equal(t, -34.6037, received["latitude"])
	assert.Equal(t, -58.3816, received["longitude"])

	boxes := received["boxes"].([]any)
	require.Len(t, boxes, 1)
	box := boxes[0].(map[string]any)
	assert.Equal(t, map[string]any{
		"x1": 200.0, "y1": 200.0, "x2": 300.0, "y2": 260.0, "name": "Fox", "date": "2024-05-01",
	}, box)
}

func TestClientSaveSingleAttemptOnFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 0)
	require.NoError(t, err)

	err = client.Save(context.Background(), testPayload())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemote))
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientSaveRedirectIsFailure(t *testing.T) {
	var posts, followed atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/save_annotation", func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		http.Redirect(w, r, "/moved", http.StatusFound)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		followed.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(server.URL, 0)
	require.NoError(t, err)

	err = client.Save(context.Background(), testPayload())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemote))
	assert.Contains(t, err.Error(), "302")
	assert.Equal(t, int32(1), posts.Load())
	assert.Equal(t, int32(0), followed.Load())
}

func TestClientSaveTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(url, time.Second)
	require.NoError(t, err)

	err = client.Save(context.Background(), testPayload())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRemote))
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient("", 0)
	assert.Error(t, err)
}

func TestNotifierFunc(t *testing.T) {
	var got []Notification
	var n Notifier = NotifierFunc(func(x Notification) { got = append(got, x) })
	n.Notify(Notification{Kind: Failure, Message: "x"})

	require.Len(t, got, 1)
	assert.Equal(t, "failure", got[0].Kind.String())
}
