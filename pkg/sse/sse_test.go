package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesGroupOnly(t *testing.T) {
	h := NewHub(time.Minute, 0)
	a := h.AddClient("a")
	b := h.AddClient("b")
	h.Join("a", "hospital:1")
	h.Join("b", "hospital:2")

	_, err := h.Publish("hospital:1", "alert", map[string]int{"id": 7})
	require.NoError(t, err)

	select {
	case msg := <-a.ch:
		assert.Equal(t, "id: 1\nevent: alert\ndata: {\"id\":7}\n\n", msg)
	default:
		t.Fatal("client a got nothing")
	}
	assert.Empty(t, b.ch)
}

func TestHistoryBounded(t *testing.T) {
	h := NewHub(time.Minute, 2)
	for i := 0; i < 3; i++ {
		_, err := h.Publish("g", "alert", i)
		require.NoError(t, err)
	}
	evs := h.Since("g", 0)
	require.Len(t, evs, 2)
	assert.EqualValues(t, 2, evs[0].ID)
	assert.Len(t, h.Since("g", 2), 1)
	assert.Empty(t, h.Since("other", 0))
}

func TestRemoveClientCleansGroups(t *testing.T) {
	h := NewHub(time.Minute, 0)
	h.AddClient("a")
	h.Join("a", "g")
	h.RemoveClient("a")
	assert.Equal(t, 0, h.ClientCount())
	assert.Empty(t, h.groups)
}

func TestServeReplaysAndStreams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHub(time.Minute, 10)
	_, err := h.Publish("g", "alert", "before")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	c.Request.Header.Set("Last-Event-ID", "0")

	done := make(chan struct{})
	go func() {
		h.Serve(c, "viewer", "g")
		close(done)
	}()

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.groups["g"]["viewer"]
	}, time.Second, 5*time.Millisecond)
	_, err = h.Publish("g", "alert", "after")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "retry: 5000")
	assert.Contains(t, body, "data: \"before\"")
	assert.Contains(t, body, "data: \"after\"")
}
