package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/muhammadolammi/resumeparser/internal/database"
	"github.com/muhammadolammi/resumeparser/internal/extract"
	"github.com/muhammadolammi/resumeparser/internal/sections"
)

const maxUploadBytes = 32 << 20 // 32 MB

// Router returns the HTTP API.
func (cfg *AppConfig) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", cfg.handleRoot)
	r.Get("/health", cfg.handleHealth)
	r.Post("/parse_resume", cfg.handleParseResume)
	r.Post("/suggest_titles", cfg.handleSuggestTitles)
	r.Post("/resumes", cfg.handleCreateResume)
	r.Get("/resumes/{id}", cfg.handleGetResume)
	r.Post("/send/{channel_id}", cfg.handleSend)

	return r
}

func (cfg *AppConfig) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Resume parser API is up!"})
}

func (cfg *AppConfig) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleParseResume extracts sections from an uploaded resume.
func (cfg *AppConfig) handleParseResume(w http.ResponseWriter, r *http.Request) {
	upload, ok := readUpload(w, r)
	if !ok {
		return
	}
	text, err := extract.FromBytes(upload.filename, upload.data)
	if err != nil {
		respondExtractError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sections.Extract(text))
}

// handleSuggestTitles extracts sections and asks the suggester for job
// titles in the same request.
func (cfg *AppConfig) handleSuggestTitles(w http.ResponseWriter, r *http.Request) {
	if cfg.Suggester == nil {
		respondError(w, http.StatusServiceUnavailable, "job title suggestions are not configured")
		return
	}
	upload, ok := readUpload(w, r)
	if !ok {
		return
	}
	text, err := extract.FromBytes(upload.filename, upload.data)
	if err != nil {
		respondExtractError(w, err)
		return
	}

	secs := sections.Extract(text)
	titles, err := cfg.Suggester.SuggestTitles(r.Context(), middleware.GetReqID(r.Context()), secs)
	if err != nil {
		if errors.Is(err, ErrNoSections) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Printf("suggestion failed for %s: %v", upload.filename, err)
		respondError(w, http.StatusBadGateway, "failed to suggest job titles")
		return
	}

	respondJSON(w, http.StatusOK, SuggestTitlesResponse{
		Filename:  upload.filename,
		Sections:  secs,
		JobTitles: titles,
	})
}

// handleCreateResume stores an upload and queues it for the worker pool.
func (cfg *AppConfig) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	if cfg.DB == nil || cfg.Store == nil || cfg.Publisher == nil {
		respondError(w, http.StatusServiceUnavailable, "resume pipeline is not configured")
		return
	}
	upload, ok := readUpload(w, r)
	if !ok {
		return
	}
	mime := extract.MimeType(upload.filename)
	if mime == "" {
		_, err := extract.FromBytes(upload.filename, nil)
		respondExtractError(w, err)
		return
	}

	id := uuid.New()
	objectKey := fmt.Sprintf("resumes/%s%s", id, strings.ToLower(filepath.Ext(upload.filename)))
	if err := cfg.Store.Put(r.Context(), objectKey, mime, upload.data); err != nil {
		log.Printf("failed to store %s: %v", upload.filename, err)
		respondError(w, http.StatusBadGateway, "failed to store resume")
		return
	}

	resume, err := cfg.DB.CreateResume(r.Context(), database.CreateResumeParams{
		ID:               id,
		OriginalFilename: upload.filename,
		Mime:             mime,
		SizeBytes:        int64(len(upload.data)),
		StorageProvider:  "r2",
		ObjectKey:        objectKey,
		Status:           statusQueued,
	})
	if err != nil {
		log.Printf("failed to record resume %s: %v", upload.filename, err)
		if err := cfg.Store.Delete(context.WithoutCancel(r.Context()), objectKey); err != nil {
			log.Printf("orphaned object %s: %v", objectKey, err)
		}
		respondError(w, http.StatusInternalServerError, "failed to record resume")
		return
	}

	if err := cfg.Publisher.PublishJob(ResumeJob{ResumeID: resume.ID}); err != nil {
		log.Printf("failed to queue resume %s: %v", resume.ID, err)
		cfg.setStatus(r.Context(), resume.ID, statusFailed, "failed to queue")
		respondError(w, http.StatusBadGateway, "failed to queue resume")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"id":     resume.ID.String(),
		"status": resume.Status,
	})
}

func (cfg *AppConfig) handleGetResume(w http.ResponseWriter, r *http.Request) {
	if cfg.DB == nil {
		respondError(w, http.StatusServiceUnavailable, "resume pipeline is not configured")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid resume id")
		return
	}

	resume, err := cfg.DB.GetResume(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "resume not found")
			return
		}
		log.Printf("failed to load resume %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load resume")
		return
	}

	resp := ResumeStatusResponse{
		ID:        resume.ID,
		Filename:  resume.OriginalFilename,
		Status:    resume.Status,
		CreatedAt: resume.CreatedAt,
		UpdatedAt: resume.UpdatedAt,
	}

	suggestions, err := cfg.DB.GetJobSuggestions(r.Context(), id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		log.Printf("failed to load suggestions for %s: %v", id, err)
	default:
		var result SuggestionResult
		if err := json.Unmarshal(suggestions.Results, &result); err != nil {
			log.Printf("bad suggestion result for %s: %v", id, err)
			break
		}
		resp.JobTitles = result.JobTitles
		resp.Error = result.Error
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleSend posts a message to a chat channel through the bot.
func (cfg *AppConfig) handleSend(w http.ResponseWriter, r *http.Request) {
	if cfg.Bot == nil {
		respondError(w, http.StatusServiceUnavailable, "chat bot is not configured")
		return
	}
	channelID := chi.URLParam(r, "channel_id")
	message := r.URL.Query().Get("message")
	if strings.TrimSpace(message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	if err := cfg.Bot.SendToChannel(channelID, message); err != nil {
		if errors.Is(err, ErrChannelNotFound) {
			respondError(w, http.StatusNotFound, "Channel not found")
			return
		}
		log.Printf("failed to send to channel %s: %v", channelID, err)
		respondError(w, http.StatusBadGateway, "failed to send message")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "Message sent"})
}

type upload struct {
	filename string
	data     []byte
}

// readUpload pulls the "file" field out of a multipart request, writing an
// error response and returning false when it cannot.
func readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read file: %v", err))
		return upload{}, false
	}
	return upload{filename: filepath.Base(header.Filename), data: data}, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondExtractError reports a text extraction failure with its kind and
// the offending filename.
func respondExtractError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	if errors.Is(err, extract.ErrUnsupportedFormat) {
		status = http.StatusUnsupportedMediaType
	}
	body := map[string]string{
		"error": err.Error(),
		"kind":  extract.KindName(err),
	}
	var extractErr *extract.Error
	if errors.As(err, &extractErr) {
		body["filename"] = extractErr.Filename
	}
	respondJSON(w, status, body)
}
