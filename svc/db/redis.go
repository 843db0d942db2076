package db

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"pasty/cfg"
	"pasty/pkg/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis stores each paste as a hash at paste:{id} and indexes it in the set
// author:{author_id}. Both writes go through one MULTI/EXEC.
type Redis struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedis(ctx context.Context, url string, c *cfg.Cfg) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	opt.PoolSize = 50
	opt.MinIdleConns = 10
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.DialTimeout = c.StoreTimeout
	opt.ReadTimeout = c.StoreTimeout
	opt.WriteTimeout = c.StoreTimeout
	// go-redis retries by default; a failed call must surface once.
	opt.MaxRetries = -1
	if c.RedisTLS {
		tlsConfig, err := buildRedisTLSConfig(opt.TLSConfig)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build Redis TLS config")
		}
		opt.TLSConfig = tlsConfig
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, c.StoreTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return NewRedisFromClient(client, c.StoreTimeout), nil
}
func NewRedisFromClient(client *redis.Client, timeout time.Duration) *Redis {
	return &Redis{client: client, timeout: timeout}
}
func buildRedisTLSConfig(base *tls.Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if base != nil {
		tlsConfig = base.Clone()
		if tlsConfig.MinVersion < tls.VersionTLS12 {
			tlsConfig.MinVersion = tls.VersionTLS12
		}
	}
	if host := os.Getenv("REDIS_HOSTNAME"); host != "" {
		tlsConfig.ServerName = host
	}
	if certPath := os.Getenv("REDIS_TLS_CA_CERT"); certPath != "" {
		caCert, err := os.ReadFile(certPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read Redis CA cert: %w", err)
		}
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to append Redis CA cert to pool")
		}
		tlsConfig.RootCAs = certPool
	}
	return tlsConfig, nil
}
func pasteKey(id string) string       { return "paste:" + id }
func authorKey(authorID string) string { return "author:" + authorID }

func (r *Redis) Insert(ctx context.Context, p domain.CreateParams) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	id := NewID()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, pasteKey(id),
			"title", p.Title,
			"content", p.Content,
			"author_id", p.AuthorID,
		)
		pipe.SAdd(ctx, authorKey(p.AuthorID), id)
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "redis insert")
	}
	return id, nil
}
func (r *Redis) FindByID(ctx context.Context, id string) (*domain.Paste, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	fields, err := r.client.HGetAll(ctx, pasteKey(id)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis find by id")
	}
	if len(fields) == 0 {
		return nil, domain.ErrPasteNotFound
	}
	return pasteFromHash(id, fields), nil
}
func (r *Redis) FindByAuthor(ctx context.Context, authorID string) ([]domain.Paste, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ids, err := r.client.SMembers(ctx, authorKey(authorID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis author members")
	}
	pastes := make([]domain.Paste, 0, len(ids))
	if len(ids) == 0 {
		return pastes, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, pasteKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "redis find by author")
	}
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		pastes = append(pastes, *pasteFromHash(ids[i], fields))
	}
	return pastes, nil
}
func pasteFromHash(id string, fields map[string]string) *domain.Paste {
	return &domain.Paste{
		ID:       id,
		Title:    fields["title"],
		Content:  fields["content"],
		AuthorID: fields["author_id"],
	}
}
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}
func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
