package broker

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { <-t.done; return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

func completed(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

type fakeClient struct {
	mqtt.Client
	token    mqtt.Token
	topic    string
	qos      byte
	payload  []byte
	disconnd bool
}

func (f *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.topic, f.qos, f.payload = topic, qos, payload.([]byte)
	return f.token
}

func (f *fakeClient) Disconnect(uint) { f.disconnd = true }

func TestPublishJSON(t *testing.T) {
	fc := &fakeClient{token: completed(nil)}
	m := New(fc)
	require.NoError(t, PublishJSON(context.Background(), m, "lifeline/alerts", map[string]string{"ref": "AB12"}))
	assert.Equal(t, "lifeline/alerts", fc.topic)
	assert.EqualValues(t, 1, fc.qos)
	assert.JSONEq(t, `{"ref":"AB12"}`, string(fc.payload))

	m.Close()
	assert.True(t, fc.disconnd)
}

func TestPublishError(t *testing.T) {
	m := New(&fakeClient{token: completed(stderrors.New("not connected"))})
	err := m.Publish(context.Background(), "t", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestPublishHonoursContext(t *testing.T) {
	m := New(&fakeClient{token: &fakeToken{done: make(chan struct{})}})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := m.Publish(ctx, "t", []byte("x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHospitalTopic(t *testing.T) {
	assert.Equal(t, "lifeline/alerts/hospital/3", HospitalTopic("lifeline/alerts/", 3))
}
