package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis answers GET and SET from a map without opening a connection
type fakeRedis struct {
	mu   sync.Mutex
	data map[string][]byte
	args map[string][]interface{}
	err  error
}

func newFakeRedisClient(t *testing.T) (*redis.Client, *fakeRedis) {
	t.Helper()
	fake := &fakeRedis{data: map[string][]byte{}, args: map[string][]interface{}{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(fake)
	t.Cleanup(func() { _ = client.Close() })
	return client, fake
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (f *fakeRedis) ProcessHook(_ redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.err != nil {
			cmd.SetErr(f.err)
			return f.err
		}

		args := cmd.Args()
		key, _ := args[1].(string)
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := f.data[key]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(string(v))
		case *redis.StatusCmd:
			v, _ := args[2].([]byte)
			f.data[key] = v
			f.args[key] = args
			c.SetVal("OK")
		default:
			err := errors.New("unsupported command " + cmd.Name())
			cmd.SetErr(err)
			return err
		}
		return nil
	}
}

func TestRedisDetailCache_GetSet(t *testing.T) {
	client, fake := newFakeRedisClient(t)
	c := NewRedisDetailCacheWithClient(client, "")
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "WR-001")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, sampleDetail("WR-001"), 5*time.Minute))
	assert.Contains(t, fake.data, "receipt:detail:WR-001")
	assert.Contains(t, fake.args["receipt:detail:WR-001"], "ex")

	d, ok, err := c.Get(ctx, "WR-001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "WR-001", d.ReceiptID)
	assert.True(t, d.Length.Equal(sampleDetail("WR-001").Length))
}

func TestRedisDetailCache_CustomPrefix(t *testing.T) {
	client, fake := newFakeRedisClient(t)
	c := NewRedisDetailCacheWithClient(client, "test:")

	require.NoError(t, c.Set(context.Background(), sampleDetail("WR-003"), time.Minute))
	assert.Contains(t, fake.data, "test:WR-003")
}

func TestRedisDetailCache_Errors(t *testing.T) {
	client, fake := newFakeRedisClient(t)
	c := NewRedisDetailCacheWithClient(client, "")
	ctx := context.Background()

	t.Run("corrupt payload", func(t *testing.T) {
		fake.data["receipt:detail:WR-001"] = []byte("{not json")

		_, ok, err := c.Get(ctx, "WR-001")
		require.Error(t, err)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "failed to decode receipt detail")
	})

	t.Run("server error", func(t *testing.T) {
		fake.err = errors.New("LOADING Redis is loading the dataset in memory")
		defer func() { fake.err = nil }()

		_, _, err := c.Get(ctx, "WR-002")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read receipt detail")

		err = c.Set(ctx, sampleDetail("WR-002"), time.Minute)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to write receipt detail")
	})
}

func TestNewRedisDetailCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisDetailCache(ctx, RedisConfig{Host: "127.0.0.1", Port: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}
