package svc

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"

	"pasty/pkg/domain"
	"pasty/svc/author"
	"pasty/svc/db"
	"pasty/svc/util"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

// memColl is an in-memory Collection that records how often it was called.
type memColl struct {
	mu      sync.Mutex
	docs    map[string]domain.Paste
	order   []string
	failErr error
	reads   int
	writes  int
}

func newMemColl() *memColl {
	return &memColl{docs: make(map[string]domain.Paste)}
}
func (m *memColl) Insert(ctx context.Context, p domain.CreateParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failErr != nil {
		return "", m.failErr
	}
	id := db.NewID()
	m.docs[id] = domain.Paste{ID: id, Title: p.Title, Content: p.Content, AuthorID: p.AuthorID}
	m.order = append(m.order, id)
	return id, nil
}
func (m *memColl) FindByID(ctx context.Context, id string) (*domain.Paste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.failErr != nil {
		return nil, m.failErr
	}
	p, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrPasteNotFound
	}
	return &p, nil
}
func (m *memColl) FindByAuthor(ctx context.Context, authorID string) ([]domain.Paste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []domain.Paste
	for _, id := range m.order {
		if p := m.docs[id]; p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	return out, nil
}
func (m *memColl) Ping(ctx context.Context) error { return m.failErr }
func (m *memColl) Close() error                   { return nil }

func TestCreateGetRoundTrip(t *testing.T) {
	d, err := author.NewDeriver([]byte("p"))
	if err != nil {
		t.Fatal(err)
	}
	svc := NewPaste(newMemColl())
	ctx := context.Background()
	authorID := d.Derive("203.0.113.5")

	id, err := svc.Create(ctx, domain.CreateParams{Title: "Hi", Content: "World", AuthorID: authorID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := &domain.Paste{ID: id, Title: "Hi", Content: "World", AuthorID: authorID}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
}

func TestGetUnusedIDIsNotFound(t *testing.T) {
	coll := newMemColl()
	svc := NewPaste(coll)
	_, err := svc.Get(context.Background(), db.NewID())
	if err != domain.ErrPasteNotFound {
		t.Errorf("expected ErrPasteNotFound, got: %v", err)
	}
}

func TestGetInvalidIDNeverReadsStorage(t *testing.T) {
	coll := newMemColl()
	svc := NewPaste(coll)
	for _, id := range []string{"not-a-valid-id-format", "", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		_, err := svc.Get(context.Background(), id)
		if errors.Cause(err) != domain.ErrInvalidID {
			t.Errorf("Get(%q) = %v, want ErrInvalidID", id, err)
		}
	}
	if coll.reads != 0 {
		t.Errorf("storage read %d times for invalid ids", coll.reads)
	}
}

func TestGetCanonicalisesUppercaseID(t *testing.T) {
	svc := NewPaste(newMemColl())
	id, err := svc.Create(context.Background(), domain.CreateParams{Title: "t", Content: "c", AuthorID: "a"})
	if err != nil {
		t.Fatal(err)
	}
	upper := ""
	for _, r := range id {
		if r >= 'a' && r <= 'f' {
			r -= 'a' - 'A'
		}
		upper += string(r)
	}
	got, err := svc.Get(context.Background(), upper)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", upper, err)
	}
	if got.ID != id {
		t.Errorf("Get returned id %q, want %q", got.ID, id)
	}
}

func TestStorageFailuresSurface(t *testing.T) {
	coll := newMemColl()
	coll.failErr = errors.New("connection refused")
	svc := NewPaste(coll)
	ctx := context.Background()

	if _, err := svc.Create(ctx, domain.CreateParams{Title: "t", Content: "c", AuthorID: "a"}); errors.Cause(err) != domain.ErrStorageUnavailable {
		t.Errorf("Create error = %v, want ErrStorageUnavailable", err)
	}
	if _, err := svc.Get(ctx, db.NewID()); errors.Cause(err) != domain.ErrStorageUnavailable {
		t.Errorf("Get error = %v, want ErrStorageUnavailable", err)
	}
	if _, err := svc.ListByAuthor(ctx, "a"); errors.Cause(err) != domain.ErrStorageUnavailable {
		t.Errorf("ListByAuthor error = %v, want ErrStorageUnavailable", err)
	}
	if coll.writes != 1 || coll.reads != 2 {
		t.Errorf("storage calls writes=%d reads=%d, want exactly 1 and 2 (no retries)", coll.writes, coll.reads)
	}
}

func TestListByAuthor(t *testing.T) {
	d, _ := author.NewDeriver([]byte("p"))
	svc := NewPaste(newMemColl())
	ctx := context.Background()
	me := d.Derive("198.51.100.7:4000")

	var want []string
	for i := 0; i < 2; i++ {
		id, err := svc.Create(ctx, domain.CreateParams{Title: "mine", Content: "c", AuthorID: me})
		if err != nil {
			t.Fatal(err)
		}
		want = append(want, id)
	}
	for _, addr := range []string{"198.51.100.7:4001", "192.0.2.1:80", "192.0.2.2:80"} {
		if _, err := svc.Create(ctx, domain.CreateParams{Title: "theirs", Content: "c", AuthorID: d.Derive(addr)}); err != nil {
			t.Fatal(err)
		}
	}

	pastes, err := svc.ListByAuthor(ctx, me)
	if err != nil {
		t.Fatalf("ListByAuthor failed: %v", err)
	}
	var got []string
	for _, p := range pastes {
		got = append(got, p.ID)
	}
	sort.Strings(want)
	sort.Strings(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListByAuthor mismatch (-want +got):\n%s", diff)
	}
	if want[0] == want[1] {
		t.Error("two creates produced the same id")
	}
}

func TestListByAuthorEmpty(t *testing.T) {
	svc := NewPaste(newMemColl())
	pastes, err := svc.ListByAuthor(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByAuthor failed: %v", err)
	}
	if pastes == nil || len(pastes) != 0 {
		t.Errorf("ListByAuthor = %#v, want empty non-nil slice", pastes)
	}
}

func TestNewPasteNilCollection(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil collection")
		}
	}()
	NewPaste(nil)
}

func TestCreateNeverLogsText(t *testing.T) {
	var buf bytes.Buffer
	util.InitLogTo(&buf, "debug", false)
	t.Cleanup(func() { util.InitLog("info", false) })

	p := NewPaste(newMemColl())
	title := "a rather long and private title"
	content := "private body text"
	if _, err := p.Create(context.Background(), domain.CreateParams{Title: title, Content: content, AuthorID: "a"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte(`"title_length":31`)) {
		t.Errorf("log missing title_length: %s", out)
	}
	for _, frag := range []string{"rather", "private", "title\"", "body text"} {
		if bytes.Contains(buf.Bytes(), []byte(frag)) {
			t.Errorf("log contains %q: %s", frag, out)
		}
	}
}
