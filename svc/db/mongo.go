package db

import (
	"context"
	"time"

	"pasty/cfg"
	"pasty/pkg/domain"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Mongo struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

type pasteDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Title    string             `bson:"title"`
	Content  string             `bson:"content"`
	AuthorID string             `bson:"author_id"`
}

func (d pasteDoc) paste() domain.Paste {
	return domain.Paste{
		ID:       d.ID.Hex(),
		Title:    d.Title,
		Content:  d.Content,
		AuthorID: d.AuthorID,
	}
}

func NewMongo(ctx context.Context, uri string, c *cfg.Cfg) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(c.StoreTimeout).
		SetServerSelectionTimeout(c.StoreTimeout).
		SetRetryWrites(false).
		SetRetryReads(false)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	m := &Mongo{
		client:  client,
		coll:    client.Database(c.MongoDatabase).Collection(c.MongoCollection),
		timeout: c.StoreTimeout,
	}
	if err := m.Ping(ctx); err != nil {
		m.Close()
		return nil, errors.Wrap(err, "ping mongo")
	}
	return m, nil
}
func (m *Mongo) Insert(ctx context.Context, p domain.CreateParams) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	doc := pasteDoc{
		ID:       primitive.NewObjectID(),
		Title:    p.Title,
		Content:  p.Content,
		AuthorID: p.AuthorID,
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return "", errors.Wrap(err, "mongo insert")
	}
	return doc.ID.Hex(), nil
}
func (m *Mongo) FindByID(ctx context.Context, id string) (*domain.Paste, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrInvalidID, "parse %q: %v", id, err)
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	var doc pasteDoc
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrPasteNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "mongo find by id")
	}
	p := doc.paste()
	return &p, nil
}
func (m *Mongo) FindByAuthor(ctx context.Context, authorID string) ([]domain.Paste, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	cur, err := m.coll.Find(ctx, bson.M{"author_id": authorID})
	if err != nil {
		return nil, errors.Wrap(err, "mongo find by author")
	}
	var docs []pasteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "mongo decode pastes")
	}
	pastes := make([]domain.Paste, 0, len(docs))
	for _, d := range docs {
		pastes = append(pastes, d.paste())
	}
	return pastes, nil
}
func (m *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.client.Ping(ctx, readpref.Primary())
}
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
