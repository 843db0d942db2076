package db

import (
	"context"
	"strings"

	"pasty/cfg"
	"pasty/pkg/domain"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the backing document store. Implementations generate the id on
// Insert, return domain.ErrPasteNotFound from FindByID when nothing matches, and
// are safe for concurrent use. They never retry a failed call.
type Collection interface {
	Insert(ctx context.Context, p domain.CreateParams) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Paste, error)
	FindByAuthor(ctx context.Context, authorID string) ([]domain.Paste, error)
	Ping(ctx context.Context) error
	Close() error
}

// Maintainer is implemented by backends that need a background housekeeping
// loop. Maintain blocks until ctx is done.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// NewID returns a fresh ObjectID in its 24 character hex form. Every backend
// uses the same id format so stores can be swapped without changing clients.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ParseID validates id as an ObjectID and returns its canonical lowercase form.
func ParseID(id string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", errors.Wrapf(domain.ErrInvalidID, "parse %q: %v", id, err)
	}
	return oid.Hex(), nil
}

// Open picks a backend from the store URI scheme:
// mongodb:// and mongodb+srv:// select MongoDB, redis:// and rediss:// select
// Redis, and sqlite://, file: or a bare path select SQLite.
func Open(ctx context.Context, c *cfg.Cfg) (Collection, error) {
	uri := c.StoreURI.Value()
	switch {
	case uri == "":
		return nil, errors.New("empty store uri")
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return NewMongo(ctx, uri, c)
	case strings.HasPrefix(uri, "redis://"), strings.HasPrefix(uri, "rediss://"):
		return NewRedis(ctx, uri, c)
	case strings.HasPrefix(uri, "sqlite://"):
		return NewSQLiteWithConfig(strings.TrimPrefix(uri, "sqlite://"), c.DBMaxOpenConns, c.DBMaxIdleConns, c.StoreTimeout)
	case strings.Contains(uri, "://"):
		return nil, errors.Errorf("unsupported store uri scheme in %q", uri[:strings.Index(uri, "://")+3])
	default:
		return NewSQLiteWithConfig(uri, c.DBMaxOpenConns, c.DBMaxIdleConns, c.StoreTimeout)
	}
}
