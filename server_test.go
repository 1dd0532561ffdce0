package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/muhammadolammi/resumeparser/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doRequest(t *testing.T, app *AppConfig, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	app.Router().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "body: %s", rr.Body.String())
	return out
}

func newPipelineApp() (*AppConfig, *fakeQuerier, *fakeStore, *fakePublisher) {
	db := newFakeQuerier()
	store := newFakeStore()
	pub := &fakePublisher{}
	return &AppConfig{DB: db, Store: store, Publisher: pub}, db, store, pub
}

func TestRootAndHealth(t *testing.T) {
	app := &AppConfig{}

	rr := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Resume parser API is up!", decodeBody(t, rr)["message"])

	rr = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", decodeBody(t, rr)["status"])
}

func TestParseResume(t *testing.T) {
	app := &AppConfig{}
	req := newUploadRequest(t, "/parse_resume", "john_cv.txt", []byte(sampleResumeText))

	rr := doRequest(t, app, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{
		"skills":          "Python, Go, Rust\nTeam leadership",
		"work_experience": "Senior Engineer at Acme (2019-2023)",
		"projects":        "Built a compiler",
	}, decodeBody(t, rr))
}

func TestParseResume_Errors(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		content    string
		wantStatus int
		wantKind   string
	}{
		{name: "unsupported extension", filename: "photo.jpg", content: "x", wantStatus: http.StatusUnsupportedMediaType, wantKind: "unsupported_format"},
		{name: "garbled pdf", filename: "cv.pdf", content: "not a pdf", wantStatus: http.StatusUnprocessableEntity, wantKind: "extraction_failure"},
		{name: "garbled docx", filename: "cv.docx", content: "not a zip", wantStatus: http.StatusUnprocessableEntity, wantKind: "extraction_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, &AppConfig{}, newUploadRequest(t, "/parse_resume", tt.filename, []byte(tt.content)))

			assert.Equal(t, tt.wantStatus, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.Equal(t, tt.filename, body["filename"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestParseResume_MissingFile(t *testing.T) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/parse_resume", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := doRequest(t, &AppConfig{}, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "file is required", decodeBody(t, rr)["error"])
}

func TestParseResume_NotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/parse_resume", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	rr := doRequest(t, &AppConfig{}, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSuggestTitles(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rr := doRequest(t, &AppConfig{}, newUploadRequest(t, "/suggest_titles", "cv.txt", []byte(sampleResumeText)))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("ok", func(t *testing.T) {
		suggester := &fakeSuggester{titles: sampleTitles}
		rr := doRequest(t, &AppConfig{Suggester: suggester}, newUploadRequest(t, "/suggest_titles", "cv.txt", []byte(sampleResumeText)))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp SuggestTitlesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "cv.txt", resp.Filename)
		assert.Equal(t, sampleTitles, resp.JobTitles)
		assert.Equal(t, "Built a compiler", resp.Sections["projects"])
		require.Len(t, suggester.calls, 1)
	})

	t.Run("no sections", func(t *testing.T) {
		suggester := &fakeSuggester{titles: sampleTitles}
		rr := doRequest(t, &AppConfig{Suggester: suggester}, newUploadRequest(t, "/suggest_titles", "cv.txt", []byte("just a name")))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("agent failure", func(t *testing.T) {
		suggester := &fakeSuggester{err: errors.New("quota exceeded")}
		rr := doRequest(t, &AppConfig{Suggester: suggester}, newUploadRequest(t, "/suggest_titles", "cv.txt", []byte(sampleResumeText)))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("unsupported file", func(t *testing.T) {
		suggester := &fakeSuggester{titles: sampleTitles}
		rr := doRequest(t, &AppConfig{Suggester: suggester}, newUploadRequest(t, "/suggest_titles", "cv.odt", []byte("x")))
		assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
		assert.Empty(t, suggester.calls)
	})
}

func TestCreateResume(t *testing.T) {
	app, db, store, pub := newPipelineApp()

	rr := doRequest(t, app, newUploadRequest(t, "/resumes", "Jane_CV.TXT", []byte(sampleResumeText)))

	require.Equal(t, http.StatusAccepted, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, statusQueued, body["status"])
	id, err := uuid.Parse(body["id"].(string))
	require.NoError(t, err)

	resume, ok := db.resumes[id]
	require.True(t, ok)
	assert.Equal(t, "Jane_CV.TXT", resume.OriginalFilename)
	assert.Equal(t, "text/plain", resume.Mime)
	assert.Equal(t, "resumes/"+id.String()+".txt", resume.ObjectKey)
	assert.Equal(t, int64(len(sampleResumeText)), resume.SizeBytes)
	assert.Equal(t, []byte(sampleResumeText), store.objects[resume.ObjectKey])
	assert.Equal(t, "text/plain", store.types[resume.ObjectKey])
	assert.Equal(t, []ResumeJob{{ResumeID: id}}, pub.jobs)
}

func TestCreateResume_Errors(t *testing.T) {
	t.Run("pipeline disabled", func(t *testing.T) {
		rr := doRequest(t, &AppConfig{}, newUploadRequest(t, "/resumes", "cv.txt", []byte("x")))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("unsupported file", func(t *testing.T) {
		app, db, store, pub := newPipelineApp()
		rr := doRequest(t, app, newUploadRequest(t, "/resumes", "cv.png", []byte("x")))

		assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
		assert.Equal(t, "cv.png", decodeBody(t, rr)["filename"])
		assert.Empty(t, db.resumes)
		assert.Empty(t, store.objects)
		assert.Empty(t, pub.jobs)
	})

	t.Run("storage failure", func(t *testing.T) {
		app, db, store, _ := newPipelineApp()
		store.putErr = errors.New("bucket gone")
		rr := doRequest(t, app, newUploadRequest(t, "/resumes", "cv.txt", []byte("x")))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Empty(t, db.resumes)
	})

	t.Run("db failure removes stored object", func(t *testing.T) {
		app, db, store, pub := newPipelineApp()
		db.createErr = errors.New("db down")
		rr := doRequest(t, app, newUploadRequest(t, "/resumes", "cv.txt", []byte("x")))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Empty(t, pub.jobs)
		assert.Empty(t, store.objects)
	})

	t.Run("db failure with failed cleanup", func(t *testing.T) {
		app, db, store, _ := newPipelineApp()
		db.createErr = errors.New("db down")
		store.deleteErr = errors.New("bucket gone")
		rr := doRequest(t, app, newUploadRequest(t, "/resumes", "cv.txt", []byte("x")))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Len(t, store.objects, 1)
	})

	t.Run("queue failure marks resume failed", func(t *testing.T) {
		app, db, _, pub := newPipelineApp()
		pub.jobErr = errors.New("broker down")
		rr := doRequest(t, app, newUploadRequest(t, "/resumes", "cv.txt", []byte("x")))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		require.Len(t, db.resumes, 1)
		for _, r := range db.resumes {
			assert.Equal(t, statusFailed, r.Status)
		}
	})
}

func TestGetResume(t *testing.T) {
	app, db, _, _ := newPipelineApp()
	id := uuid.New()
	db.resumes[id] = database.Resume{ID: id, OriginalFilename: "cv.pdf", Status: statusCompleted}
	results, err := json.Marshal(SuggestionResult{JobTitles: sampleTitles})
	require.NoError(t, err)
	db.suggestions[id] = database.JobSuggestion{ResumeID: id, Results: results}

	rr := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/resumes/"+id.String(), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ResumeStatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "cv.pdf", resp.Filename)
	assert.Equal(t, statusCompleted, resp.Status)
	assert.Equal(t, sampleTitles, resp.JobTitles)
	assert.Empty(t, resp.Error)
}

func TestGetResume_FailedResult(t *testing.T) {
	app, db, _, _ := newPipelineApp()
	id := uuid.New()
	db.resumes[id] = database.Resume{ID: id, OriginalFilename: "cv.pdf", Status: statusFailed}
	results, err := json.Marshal(SuggestionResult{IsErrorResult: true, Error: "text extraction error"})
	require.NoError(t, err)
	db.suggestions[id] = database.JobSuggestion{ResumeID: id, Results: results}

	rr := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/resumes/"+id.String(), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, statusFailed, body["status"])
	assert.Equal(t, "text extraction error", body["error"])
	assert.NotContains(t, body, "job_titles")
}

func TestGetResume_Errors(t *testing.T) {
	app, db, _, _ := newPipelineApp()
	queued := uuid.New()
	db.resumes[queued] = database.Resume{ID: queued, OriginalFilename: "cv.txt", Status: statusQueued}

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "bad id", path: "/resumes/not-a-uuid", wantStatus: http.StatusBadRequest},
		{name: "unknown id", path: "/resumes/" + uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "queued without result", path: "/resumes/" + queued.String(), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, app, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}

	rr := doRequest(t, &AppConfig{}, httptest.NewRequest(http.MethodGet, "/resumes/"+queued.String(), nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSend(t *testing.T) {
	sender := &fakeSender{known: map[string]bool{"42": true}}
	app := &AppConfig{Bot: sender}

	rr := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/send/42?message=hello", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Message sent", decodeBody(t, rr)["status"])
	assert.Equal(t, []string{"hello"}, sender.sent["42"])

	rr = doRequest(t, app, httptest.NewRequest(http.MethodPost, "/send/7?message=hello", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Channel not found", decodeBody(t, rr)["error"])

	rr = doRequest(t, app, httptest.NewRequest(http.MethodPost, "/send/42", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, &AppConfig{}, httptest.NewRequest(http.MethodPost, "/send/42?message=hi", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
