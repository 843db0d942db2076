package svc

import (
	"context"

	"pasty/metrics"
	"pasty/pkg/domain"
	"pasty/svc/db"
	"pasty/svc/util"

	"github.com/pkg/errors"
)

// Paste owns paste persistence. It holds no mutable state of its own; the
// collection handle is the only thing shared between requests.
type Paste struct {
	coll db.Collection
}

func NewPaste(coll db.Collection) *Paste {
	if coll == nil {
		panic("paste service: nil collection")
	}
	return &Paste{coll: coll}
}

// Create stores title and content verbatim under authorID and returns the new
// id. If ctx is cancelled while the write is in flight the caller gets an
// error, but the document may or may not have been persisted.
func (p *Paste) Create(ctx context.Context, params domain.CreateParams) (string, error) {
	id, err := p.coll.Insert(ctx, params)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("insert").Inc()
		return "", errors.Wrapf(domain.ErrStorageUnavailable, "insert paste: %v", err)
	}
	metrics.PasteCreated.Inc()
	util.Debug().
		Str("paste_id", id).
		Int("title_length", len(params.Title)).
		Int("content_length", len(params.Content)).
		Msg("paste stored")
	return id, nil
}

// Get validates id before touching storage; a malformed id never reaches the
// collection.
func (p *Paste) Get(ctx context.Context, id string) (*domain.Paste, error) {
	canonical, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}
	paste, err := p.coll.FindByID(ctx, canonical)
	if err != nil {
		if errors.Is(err, domain.ErrPasteNotFound) {
			metrics.PasteNotFound.Inc()
			return nil, domain.ErrPasteNotFound
		}
		metrics.StorageErrors.WithLabelValues("find_by_id").Inc()
		return nil, errors.Wrapf(domain.ErrStorageUnavailable, "get paste %s: %v", canonical, err)
	}
	metrics.PasteRetrieved.Inc()
	return paste, nil
}

// ListByAuthor returns every paste stored under authorID in whatever order the
// collection yields them. No matches is an empty slice, not an error.
func (p *Paste) ListByAuthor(ctx context.Context, authorID string) ([]domain.Paste, error) {
	pastes, err := p.coll.FindByAuthor(ctx, authorID)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("find_by_author").Inc()
		return nil, errors.Wrapf(domain.ErrStorageUnavailable, "list pastes by author: %v", err)
	}
	metrics.AuthorLookups.Inc()
	if pastes == nil {
		pastes = []domain.Paste{}
	}
	return pastes, nil
}

func (p *Paste) Ping(ctx context.Context) error {
	return p.coll.Ping(ctx)
}
