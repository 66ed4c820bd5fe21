package handler

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/assets"
	"github.com/sakif/openart/internal/auth"
	"github.com/sakif/openart/internal/model"
)

// Limits caps request bodies. Zero values are replaced by the defaults.
type Limits struct {
	MaxBodyBytes   int64 // JSON bodies, default 16 KiB
	MaxUploadBytes int64 // multipart bodies, default 20 MiB
}

func (l Limits) withDefaults() Limits {
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = 16 << 10
	}
	if l.MaxUploadBytes <= 0 {
		l.MaxUploadBytes = 20 << 20
	}
	return l
}

// multipartMemory is how much of a multipart body is held in memory; the
// rest spills to temporary files.
const multipartMemory = 8 << 20

// decodeJSON reads a single JSON object into dst. An empty body leaves dst
// untouched. The body is read in full first so a body over limit is
// reported as such rather than as a decode error.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		if isTooLarge(err) {
			return apperror.ValidationFailed("body", "Request body too large")
		}
		return apperror.ValidationFailed("body", "Request body could not be read")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperror.ValidationFailed("body", "Request body must be valid JSON")
	}
	return nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// parseMultipart parses a multipart body. The returned cleanup removes any
// temporary files and must be called once the uploads have been relayed.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) (func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			return func() {}, apperror.ValidationFailed("body", "Upload too large")
		}
		return func() {}, apperror.ValidationFailed("body", "Request must be multipart/form-data")
	}
	return func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}, nil
}

// formFile returns the upload under field, or nil when none was sent.
func formFile(r *http.Request, field string) *assets.Upload {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 || headers[0].Size == 0 {
		return nil
	}
	fh := headers[0]
	f, err := fh.Open()
	if err != nil {
		return nil
	}
	return &assets.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
}

// formList collects a repeated field, accepting "a,b" as well as a=a&a=b
// and the bracketed a[] form.
func formList(r *http.Request, field string) []string {
	if r.MultipartForm == nil {
		return nil
	}
	var out []string
	for _, key := range []string{field, field + "[]"} {
		for _, v := range r.MultipartForm.Value[key] {
			for _, part := range strings.Split(v, ",") {
				if p := strings.TrimSpace(part); p != "" {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// currentUser returns the user bound by auth.RequireAuth. Routes using it
// are always behind the guard.
func currentUser(r *http.Request) *model.User {
	u, _ := auth.UserFromContext(r.Context())
	return u
}

func target(r *http.Request, kind model.ContentKind) (model.Target, error) {
	t, err := model.NewTarget(kind, strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		return model.Target{}, apperror.ValidationFailed("id", kind.Label()+" id is required")
	}
	return t, nil
}

// closeUpload releases an opened multipart file.
func closeUpload(u *assets.Upload) {
	if u == nil {
		return
	}
	if c, ok := u.Body.(io.Closer); ok {
		_ = c.Close()
	}
}
