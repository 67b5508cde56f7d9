package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayer() *Layer {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "events.list", Key("events.list"))
	assert.Equal(t, "events.list|concert|10", Key("events.list", "concert", 10))
	assert.NotEqual(t, Key("events.list", "a", "b"), Key("events.list", "ab"))
}

func TestGetOrLoad_CachesSecondCall(t *testing.T) {
	l := testLayer()
	loads := 0

	load := func(ctx context.Context) (string, error) {
		loads++
		return "value", nil
	}

	v, err := GetOrLoad(context.Background(), l, "tag", "key", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	v, err = GetOrLoad(context.Background(), l, "tag", "key", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, loads)
}

func TestGetOrLoad_ErrorNotCached(t *testing.T) {
	l := testLayer()
	loads := 0

	_, err := GetOrLoad(context.Background(), l, "tag", "key", time.Minute, func(ctx context.Context) (int, error) {
		loads++
		return 0, errors.New("db down")
	})
	require.Error(t, err)

	v, err := GetOrLoad(context.Background(), l, "tag", "key", time.Minute, func(ctx context.Context) (int, error) {
		loads++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 2, loads)
}

func TestGetOrLoad_NilResultCached(t *testing.T) {
	l := testLayer()
	loads := 0

	load := func(ctx context.Context) (*string, error) {
		loads++
		return nil, nil
	}

	v, err := GetOrLoad(context.Background(), l, "tag", "missing", time.Minute, load)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = GetOrLoad(context.Background(), l, "tag", "missing", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads, "a normalized not-found is cached like any value")
}

func TestInvalidate_DropsTaggedKeysOnly(t *testing.T) {
	l := testLayer()
	loads := map[string]int{}

	load := func(name string) func(context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			loads[name]++
			return name, nil
		}
	}

	_, err := GetOrLoad(context.Background(), l, "events", "events.list", time.Minute, load("events"))
	require.NoError(t, err)
	_, err = GetOrLoad(context.Background(), l, "guides", "guides.list", time.Minute, load("guides"))
	require.NoError(t, err)

	l.Invalidate("events")

	_, err = GetOrLoad(context.Background(), l, "events", "events.list", time.Minute, load("events"))
	require.NoError(t, err)
	_, err = GetOrLoad(context.Background(), l, "guides", "guides.list", time.Minute, load("guides"))
	require.NoError(t, err)

	assert.Equal(t, 2, loads["events"])
	assert.Equal(t, 1, loads["guides"])
}

func TestInvalidate_MultipleTags(t *testing.T) {
	l := testLayer()
	count := 0

	load := func(ctx context.Context) (int, error) {
		count++
		return count, nil
	}

	_, _ = GetOrLoad(context.Background(), l, "chats", "c", time.Minute, load)
	_, _ = GetOrLoad(context.Background(), l, "messages", "m", time.Minute, load)

	l.Invalidate("chats", "messages")

	_, _ = GetOrLoad(context.Background(), l, "chats", "c", time.Minute, load)
	_, _ = GetOrLoad(context.Background(), l, "messages", "m", time.Minute, load)

	assert.Equal(t, 4, count)
}

func TestInvalidate_UnknownTagIsNoop(t *testing.T) {
	l := testLayer()
	assert.NotPanics(t, func() { l.Invalidate("nothing-here") })
}
