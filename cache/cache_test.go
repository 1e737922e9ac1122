package cache_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/reoring/jsondecode/cache"
)

const key = "0f3a9c"

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, s cache.Store) {
	t.Helper()
	ctx := context.Background()

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.Read(ctx, key)
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, s.WriteAtomic(ctx, key, []byte(`{"version":1}`)))
	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	data, err := s.Read(ctx, key)
	require.NoError(t, err)
	require.Equal(t, `{"version":1}`, string(data))

	require.NoError(t, s.WriteAtomic(ctx, key, []byte(`{"version":2}`)))
	data, err = s.Read(ctx, key)
	require.NoError(t, err)
	require.Equal(t, `{"version":2}`, string(data))

	require.ErrorIs(t, s.WriteAtomic(ctx, "../escape", nil), cache.ErrInvalidKey)
}

func TestValidateKey(t *testing.T) {
	t.Parallel()

	require.NoError(t, cache.ValidateKey("abc123"))
	for _, k := range []string{"", "a/b", `a\b`, "..", "a:b"} {
		require.ErrorIs(t, cache.ValidateKey(k), cache.ErrInvalidKey, k)
	}
}

// --- FileStore ---

func TestFileStore(t *testing.T) {
	t.Parallel()

	t.Run("contract", func(t *testing.T) {
		t.Parallel()
		storeContract(t, cache.NewFileStore(filepath.Join(t.TempDir(), "nested", "dir")))
	})

	t.Run("concurrent writers leave exactly one artifact", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s := cache.NewFileStore(dir)
		payload := bytes.Repeat([]byte("x"), 64<<10)

		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.WriteAtomic(context.Background(), key, payload)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, key+".json", entries[0].Name())

		data, err := s.Read(context.Background(), key)
		require.NoError(t, err)
		require.Equal(t, payload, data)
	})

	t.Run("file mode option", func(t *testing.T) {
		t.Parallel()

		s := cache.NewFileStore(t.TempDir(), cache.WithFileMode(0o600))
		require.NoError(t, s.WriteAtomic(context.Background(), key, []byte("{}")))
		info, err := os.Stat(s.Path(key))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})
}

// --- Memory ---

func TestMemory(t *testing.T) {
	t.Parallel()

	m := cache.NewMemory()
	storeContract(t, m)
	require.Equal(t, 1, m.Len())

	data, err := m.Read(context.Background(), key)
	require.NoError(t, err)
	data[0] = 'X'
	again, err := m.Read(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, byte('{'), again[0], "Read must return a copy")
}

// --- Redis ---

type fakeRedis struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, f.err)
}

func (f *fakeRedis) Get(_ context.Context, k string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[k]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(_ context.Context, k string, value any, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[k] = value.([]byte)
	f.ttl[k] = exp
	return redis.NewStatusResult("OK", f.err)
}

func TestRedis(t *testing.T) {
	t.Parallel()

	t.Run("contract", func(t *testing.T) {
		t.Parallel()
		storeContract(t, cache.NewRedis(newFakeRedis()))
	})

	t.Run("prefix and ttl", func(t *testing.T) {
		t.Parallel()

		f := newFakeRedis()
		s := cache.NewRedis(f, cache.WithPrefix("providers"), cache.WithTTL(time.Hour))
		require.NoError(t, s.WriteAtomic(context.Background(), key, []byte("{}")))
		require.Contains(t, f.data, "providers:"+key)
		require.Equal(t, time.Hour, f.ttl["providers:"+key])
	})

	t.Run("client errors propagate", func(t *testing.T) {
		t.Parallel()

		f := newFakeRedis()
		f.err = errors.New("connection refused")
		s := cache.NewRedis(f)
		_, err := s.Read(context.Background(), key)
		require.Error(t, err)
		require.NotErrorIs(t, err, cache.ErrNotFound)
		_, err = s.Exists(context.Background(), key)
		require.Error(t, err)
	})
}

// --- S3 ---

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	headErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[*in.Bucket+"/"+*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(v))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = data
	f.types[*in.Bucket+"/"+*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func TestS3(t *testing.T) {
	t.Parallel()

	t.Run("contract", func(t *testing.T) {
		t.Parallel()
		storeContract(t, cache.NewS3(newFakeS3(), "bucket", "artifacts"))
	})

	t.Run("object layout", func(t *testing.T) {
		t.Parallel()

		f := newFakeS3()
		s := cache.NewS3(f, "bucket", "artifacts")
		require.NoError(t, s.WriteAtomic(context.Background(), key, []byte("{}")))
		require.Contains(t, f.objects, "bucket/artifacts/"+key+".json")
		require.Equal(t, "application/json", f.types["bucket/artifacts/"+key+".json"])
	})

	t.Run("api error codes map to not found", func(t *testing.T) {
		t.Parallel()

		f := newFakeS3()
		f.headErr = &smithy.GenericAPIError{Code: "NotFound", Message: "missing"}
		ok, err := cache.NewS3(f, "bucket", "").Exists(context.Background(), key)
		require.NoError(t, err)
		require.False(t, ok)

		f.headErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
		_, err = cache.NewS3(f, "bucket", "").Exists(context.Background(), key)
		require.Error(t, err)
	})

	t.Run("client from static credentials", func(t *testing.T) {
		t.Parallel()

		client := cache.NewS3Client(cache.S3Config{
			AccessKey: "test-access-key",
			SecretKey: "test-secret-key",
			Endpoint:  "http://localhost:9000",
			PathStyle: true,
		})
		require.NotNil(t, client)
		require.Equal(t, "us-east-1", client.Options().Region)
		require.True(t, client.Options().UsePathStyle)
	})
}

// --- Postgres ---

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *bool:
			*d = r.vals[i].(bool)
		case *[]byte:
			*d = r.vals[i].([]byte)
		}
	}
	return nil
}

type fakePg struct {
	mu   sync.Mutex
	rows map[string][]byte
	sql  []string
}

func (f *fakePg) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sql = append(f.sql, sql)
	if strings.HasPrefix(sql, "INSERT") {
		f.rows[args[0].(string)] = args[1].([]byte)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakePg) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sql = append(f.sql, sql)
	data, ok := f.rows[args[0].(string)]
	if strings.Contains(sql, "EXISTS") {
		return fakeRow{vals: []any{ok}}
	}
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{vals: []any{data}}
}

func TestPostgres(t *testing.T) {
	t.Parallel()

	t.Run("contract", func(t *testing.T) {
		t.Parallel()
		storeContract(t, cache.NewPostgres(&fakePg{rows: map[string][]byte{}}))
	})

	t.Run("table name is quoted", func(t *testing.T) {
		t.Parallel()

		f := &fakePg{rows: map[string][]byte{}}
		s := cache.NewPostgres(f, cache.WithTable("provider_cache"))
		require.NoError(t, s.EnsureTable(context.Background()))
		require.NoError(t, s.WriteAtomic(context.Background(), key, []byte("{}")))
		require.Len(t, f.sql, 2)
		require.Contains(t, f.sql[0], `CREATE TABLE IF NOT EXISTS "provider_cache"`)
		require.Contains(t, f.sql[1], `ON CONFLICT (key) DO UPDATE`)
	})
}
