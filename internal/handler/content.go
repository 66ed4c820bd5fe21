package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/service"
)

// ContentHandler serves one content kind. The server mounts one per kind at
// /artworks, /artblogs and /announcements.
type ContentHandler struct {
	kind    model.ContentKind
	content *service.ContentService
	limits  Limits
	logger  *slog.Logger
}

func NewContentHandler(kind model.ContentKind, content *service.ContentService, limits Limits, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{kind: kind, content: content, limits: limits.withDefaults(), logger: logger}
}

// Routes mounts create_<kind>, edit_<kind>/{id}, delete_<kind>/{id},
// get_<kind>/{id} and get_<kind>s_by_content_choice.
func (h *ContentHandler) Routes(r chi.Router) {
	k := string(h.kind)
	r.Post("/create_"+k, h.Create)
	r.Patch("/edit_"+k+"/{id}", h.Edit)
	r.Delete("/delete_"+k+"/{id}", h.Delete)
	r.Get("/get_"+k+"/{id}", h.Get)
	r.Get("/get_"+k+"s_by_content_choice", h.Feed)
}

type contentBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Category    string `json:"category"`
}

// bind reads a create or edit body. Multipart is accepted for every kind;
// JSON only makes sense where no file is involved.
func (h *ContentHandler) bind(w http.ResponseWriter, r *http.Request) (service.ContentInput, func(), error) {
	textField := h.kind.TextField()

	if !isMultipart(r) {
		var body contentBody
		if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &body); err != nil {
			return service.ContentInput{}, func() {}, err
		}
		text := body.Description
		if textField == "content" {
			text = body.Content
		}
		return service.ContentInput{Title: body.Title, Text: text, Category: body.Category}, func() {}, nil
	}

	cleanup, err := parseMultipart(w, r, h.limits.MaxUploadBytes)
	if err != nil {
		return service.ContentInput{}, cleanup, err
	}
	in := service.ContentInput{
		Title:    r.FormValue("title"),
		Text:     r.FormValue(textField),
		Category: r.FormValue("category"),
	}
	if field := h.kind.AssetField(); field != "" {
		in.File = formFile(r, field)
	}
	return in, func() {
		closeUpload(in.File)
		cleanup()
	}, nil
}

func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := h.bind(w, r)
	defer cleanup()
	if err != nil {
		WriteError(w, err)
		return
	}

	c, err := h.content.Create(r.Context(), currentUser(r).ID, h.kind, in)
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusCreated, c, h.kind.Label()+" created successfully")
}

func (h *ContentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := h.bind(w, r)
	defer cleanup()
	if err != nil {
		WriteError(w, err)
		return
	}

	c, err := h.content.Edit(r.Context(), currentUser(r).ID, h.kind, chi.URLParam(r, "id"), in)
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, c, h.kind.Label()+" updated successfully")
}

func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, err := h.content.Delete(r.Context(), currentUser(r).ID, h.kind, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, c, h.kind.Label()+" deleted successfully")
}

func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.content.Get(r.Context(), currentUser(r).ID, h.kind, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, view, h.kind.Label()+" fetched successfully")
}

func (h *ContentHandler) Feed(w http.ResponseWriter, r *http.Request) {
	views, err := h.content.Feed(r.Context(), currentUser(r).ID, h.kind)
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, views, h.kind.Label()+"s fetched successfully")
}
