package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperror.ValidationFailed("title", "required"), http.StatusBadRequest},
		{apperror.Unauthorized("nope"), http.StatusUnauthorized},
		{apperror.Forbidden("nope"), http.StatusForbidden},
		{apperror.NotFound("Artwork", "x"), http.StatusNotFound},
		{apperror.ConflictMessage("taken"), http.StatusConflict},
		{apperror.Upstream("Avatar file upload failed", errors.New("boom")), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", apperror.Forbidden("nope")), http.StatusForbidden},
		{errors.New("driver exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestWriteError(t *testing.T) {
	t.Run("typed error keeps message and fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, apperror.ValidationFailed("avatar", "Avatar file is required"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "avatar", body.Errors[0].Field)
	})

	t.Run("untyped error is hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("SQLITE_BUSY: database is locked"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "SQLITE")
		assert.Contains(t, rec.Body.String(), `"errors":[]`)
	})
}

func TestRespond(t *testing.T) {
	rec := httptest.NewRecorder()
	respond(rec, http.StatusCreated, map[string]string{"_id": "a"}, "Created")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(201), body["statusCode"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Created", body["message"])
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Title string `json:"title"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, 1024, &dst))
	assert.Equal(t, "x", dst.Title)

	req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	assert.NoError(t, decodeJSON(httptest.NewRecorder(), req, 1024, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(" \n\t"))
	assert.NoError(t, decodeJSON(httptest.NewRecorder(), req, 1024, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	err := decodeJSON(httptest.NewRecorder(), req, 1024, &dst)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"`+strings.Repeat("a", 64)+`"}`))
	err = decodeJSON(httptest.NewRecorder(), req, 16, &dst)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Request body too large", appErr.Message)

	// A body over the limit never reaches dst, even when its prefix is valid.
	dst.Title = ""
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`+strings.Repeat(" ", 64)))
	err = decodeJSON(httptest.NewRecorder(), req, 16, &dst)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Empty(t, dst.Title)
}

func multipartRequest(t *testing.T, fields map[string][]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFormList(t *testing.T) {
	req := multipartRequest(t, map[string][]string{
		"contentChoice":   {"painting, digital", " "},
		"contentChoice[]": {"sculpture"},
	}, nil)
	cleanup, err := parseMultipart(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, []string{"painting", "digital", "sculpture"}, formList(req, "contentChoice"))
	assert.Nil(t, formList(httptest.NewRequest(http.MethodPost, "/", nil), "contentChoice"))
}

func TestFormFile(t *testing.T) {
	req := multipartRequest(t, nil, map[string]string{"avatar": "bytes", "coverImage": ""})
	cleanup, err := parseMultipart(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)
	defer cleanup()

	up := formFile(req, "avatar")
	require.NotNil(t, up)
	defer closeUpload(up)
	assert.Equal(t, "avatar.png", up.Filename)
	assert.Equal(t, int64(5), up.Size)

	assert.Nil(t, formFile(req, "coverImage"), "empty file part counts as absent")
	assert.Nil(t, formFile(req, "missing"))
}

func TestParseMultipart_Rejects(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	assert.False(t, isMultipart(req))

	_, err := parseMultipart(httptest.NewRecorder(), req, 1<<20)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	big := multipartRequest(t, nil, map[string]string{"avatar": strings.Repeat("x", 4096)})
	_, err = parseMultipart(httptest.NewRecorder(), big, 512)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestTarget(t *testing.T) {
	withID := func(id string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		return httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.WithValue(context.Background(), chi.RouteCtxKey, rctx))
	}

	tg, err := target(withID(" abc "), model.KindArtblog)
	require.NoError(t, err)
	assert.Equal(t, model.Target{Kind: model.KindArtblog, ID: "abc"}, tg)

	_, err = target(withID(""), model.KindArtwork)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(pinger{})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	Health(pinger{err: errors.New("closed")})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
