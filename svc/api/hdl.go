package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"unicode/utf8"

	"pasty/pkg/domain"
	"pasty/svc/svc"
	"pasty/svc/util"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"
)

type Hdl struct {
	paste   *svc.Paste
	deriver Deriver
}

// CreateReq uses pointers so a missing field can be told apart from an empty
// string. Empty strings are valid titles and contents.
type CreateReq struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}
type AuthorResp struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

func (h *Hdl) CreatePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		log.Warn().
			Str("content_type", contentType).
			Str("request_id", requestID).
			Msg("invalid Content-Type header")
		writeErr(w, domain.ErrUnsupportedMedia, requestID)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read request body")
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	// encoding/json would replace invalid bytes with U+FFFD; stored text must
	// match what was sent.
	if !utf8.Valid(body) {
		log.Warn().Int("body_length", len(body)).Msg("request body is not valid UTF-8")
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	var req CreateReq
	if err := json.Unmarshal(body, &req); err != nil {
		if len(body) == 0 {
			log.Warn().Msg("empty request body")
		} else {
			log.Warn().Err(err).Msg("invalid request")
		}
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	if req.Title == nil || req.Content == nil {
		log.Warn().
			Bool("has_title", req.Title != nil).
			Bool("has_content", req.Content != nil).
			Msg("missing field")
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}

	// RemoteAddr is used verbatim, port included. Proxy headers are ignored.
	addr := r.RemoteAddr
	if addr == "" {
		log.Error().Str("request_id", requestID).Msg("client address unavailable")
		writeErr(w, domain.ErrAddressUnavailable, requestID)
		return
	}
	params := domain.CreateParams{
		Title:    *req.Title,
		Content:  *req.Content,
		AuthorID: h.deriver.Derive(addr),
	}
	id, err := h.paste.Create(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Str("client_ip", util.RedactIP(addr)).Msg("failed to create paste")
		writeErr(w, err, requestID)
		return
	}
	log.Info().
		Str("paste_id", id).
		Str("client_ip", util.RedactIP(addr)).
		Msg("paste created")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(id)
}
func (h *Hdl) GetPaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	paste, err := h.paste.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPasteNotFound):
			log.Debug().Str("paste_id", id).Msg("paste not found")
		case errors.Is(err, domain.ErrInvalidID):
			log.Warn().Err(err).Msg("malformed paste id")
		default:
			log.Error().Err(err).Str("paste_id", id).Msg("get failed")
		}
		writeErr(w, err, requestID)
		return
	}
	log.Info().Str("paste_id", paste.ID).Msg("paste retrieved")
	json.NewEncoder(w).Encode(paste)
}
func (h *Hdl) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	authorID := chi.URLParam(r, "author_id")
	// chi routes on RawPath when the request has one, leaving escapes in place.
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(authorID); err == nil {
			authorID = unescaped
		}
	}
	pastes, err := h.paste.ListByAuthor(r.Context(), authorID)
	if err != nil {
		log.Error().Err(err).Msg("list by author failed")
		writeErr(w, err, requestID)
		return
	}
	resp := AuthorResp{Count: len(pastes), IDs: make([]string, 0, len(pastes))}
	for _, p := range pastes {
		resp.IDs = append(resp.IDs, p.ID)
	}
	log.Info().Int("count", resp.Count).Msg("pastes listed by author")
	json.NewEncoder(w).Encode(resp)
}

// writeErr hides the message of every 5xx except the code, which is enough for
// a client to tell a malformed id from a storage outage.
func writeErr(w http.ResponseWriter, err error, requestID string) {
	statusCode := domain.Status(err)
	detail := domain.ToResp(err).Error
	errorMsg := detail.Msg
	if statusCode >= 500 && !errors.Is(err, domain.ErrInvalidID) {
		errorMsg = "internal server error"
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error":      errorMsg,
		"code":       detail.Code,
		"request_id": requestID,
	})
}
