package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoPayload struct {
	Value string `json:"value"`
}

type echoTask struct {
	got *echoPayload
	err error
}

func (echoTask) Name() string { return "echo" }

func (t echoTask) Handle(_ context.Context, p echoPayload) error {
	*t.got = p
	return t.err
}

type tickTask struct {
	calls *int
}

func (tickTask) Name() string     { return "tick" }
func (tickTask) Schedule() string { return "*/5 * * * *" }

func (t tickTask) Handle(context.Context) error {
	*t.calls++
	return nil
}

func TestTyped_Execute(t *testing.T) {
	t.Parallel()

	t.Run("decodes payload", func(t *testing.T) {
		t.Parallel()

		var got echoPayload
		e := typed[echoPayload, echoTask]{task: echoTask{got: &got}}
		require.NoError(t, e.Execute(context.Background(), json.RawMessage(`{"value":"hi"}`)))
		assert.Equal(t, "hi", got.Value)
	})

	t.Run("empty payload is zero value", func(t *testing.T) {
		t.Parallel()

		got := echoPayload{Value: "stale"}
		e := typed[echoPayload, echoTask]{task: echoTask{got: &got}}
		require.NoError(t, e.Execute(context.Background(), nil))
		assert.Empty(t, got.Value)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()

		var got echoPayload
		e := typed[echoPayload, echoTask]{task: echoTask{got: &got}}
		err := e.Execute(context.Background(), json.RawMessage(`{"value":`))
		require.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("handler error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		var got echoPayload
		e := typed[echoPayload, echoTask]{task: echoTask{got: &got, err: boom}}
		require.ErrorIs(t, e.Execute(context.Background(), nil), boom)
	})
}

func TestPeriodic_IgnoresPayload(t *testing.T) {
	t.Parallel()

	calls := 0
	p := periodic(tickTask{calls: &calls}.Handle)
	require.NoError(t, p.Execute(context.Background(), json.RawMessage(`{"ignored":true}`)))
	assert.Equal(t, 1, calls)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := newRegistry()
	calls := 0
	r.register("tick", periodic(tickTask{calls: &calls}.Handle))
	r.register("another", periodic(tickTask{calls: &calls}.Handle))

	e, ok := r.get("tick")
	require.True(t, ok)
	require.NoError(t, e.Execute(context.Background(), nil))
	assert.Equal(t, 1, calls)

	_, ok = r.get("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"another", "tick"}, r.names())
}
