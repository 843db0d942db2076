package domain

// Paste is the only persisted entity. AuthorID is set once, at creation, from the
// submitter's derived identifier and is never taken from the client.
type Paste struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	AuthorID string `json:"author_id"`
}

type CreateParams struct {
	Title    string
	Content  string
	AuthorID string
}
