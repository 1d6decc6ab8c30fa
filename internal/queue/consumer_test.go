package queue

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type fakeAck struct {
	acked   int
	nacked  int
	requeue bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked++; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}
func (f *fakeAck) Reject(uint64, bool) error { return nil }

func TestDispatch_AcksOnSuccess(t *testing.T) {
	ack := &fakeAck{}
	var gotKey string
	err := Dispatch(context.Background(), amqp.Delivery{Acknowledger: ack, RoutingKey: KeyUserRegistered, Body: []byte(`{}`)},
		func(_ context.Context, key string, _ []byte) error { gotKey = key; return nil })

	require.NoError(t, err)
	require.Equal(t, 1, ack.acked)
	require.Equal(t, KeyUserRegistered, gotKey)
}

func TestDispatch_RequeuesFirstFailureOnly(t *testing.T) {
	boom := errors.New("boom")
	fail := func(context.Context, string, []byte) error { return boom }

	first := &fakeAck{}
	require.ErrorIs(t, Dispatch(context.Background(), amqp.Delivery{Acknowledger: first}, fail), boom)
	require.Equal(t, 1, first.nacked)
	require.True(t, first.requeue)

	again := &fakeAck{}
	require.ErrorIs(t, Dispatch(context.Background(), amqp.Delivery{Acknowledger: again, Redelivered: true}, fail), boom)
	require.False(t, again.requeue)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), KeyUserLoggedIn, UserLoggedIn{UserID: "1"}, "req"))
	require.Equal(t, []string{KeyUserLoggedIn}, r.Keys())
	require.Equal(t, "req", r.Events()[0].ReqID)

	r.Err = errors.New("down")
	require.Error(t, r.Publish(context.Background(), KeyUserDeleted, UserDeleted{}, ""))
	require.Len(t, r.Events(), 1)
}
