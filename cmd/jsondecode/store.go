package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/reoring/jsondecode/cache"
)

// openStore builds the artifact store named by uri. The returned func
// releases any connection the store holds.
func openStore(ctx context.Context, uri string) (cache.Store, func(), error) {
	noop := func() {}
	if uri == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, noop, err
		}
		return cache.NewFileStore(filepath.Join(dir, "jsondecode")), noop, nil
	}
	if filepath.VolumeName(uri) != "" {
		return cache.NewFileStore(uri), noop, nil
	}
	u, err := url.Parse(uri)
	// A one-letter scheme is a drive letter (C:\cache) parsed on a non-Windows host.
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return cache.NewFileStore(uri), noop, nil
	}
	switch u.Scheme {
	case "file":
		return cache.NewFileStore(u.Path), noop, nil
	case "redis", "rediss":
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, noop, err
		}
		client := redis.NewClient(opt)
		return cache.NewRedis(client, cache.WithPrefix("jsondecode")), func() { _ = client.Close() }, nil
	case "s3":
		endpoint := os.Getenv("AWS_ENDPOINT_URL_S3")
		client := cache.NewS3Client(cache.S3Config{
			Region:    os.Getenv("AWS_REGION"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Endpoint:  endpoint,
			PathStyle: endpoint != "",
		})
		return cache.NewS3(client, u.Host, strings.Trim(u.Path, "/")), noop, nil
	case "postgres", "postgresql":
		conn, err := pgx.Connect(ctx, uri)
		if err != nil {
			return nil, noop, err
		}
		release := func() { _ = conn.Close(context.Background()) }
		store := cache.NewPostgres(conn)
		if err := store.EnsureTable(ctx); err != nil {
			release()
			return nil, noop, err
		}
		return store, release, nil
	}
	return nil, noop, fmt.Errorf("unsupported store scheme %q", u.Scheme)
}
