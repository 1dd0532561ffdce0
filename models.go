package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/resumeparser/internal/database"
	"github.com/muhammadolammi/resumeparser/internal/sections"
)

const (
	statusQueued     = "queued"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

// TitleSuggester turns extracted resume sections into ranked job titles.
type TitleSuggester interface {
	SuggestTitles(ctx context.Context, userID string, secs sections.Result) ([]JobTitle, error)
}

// ObjectStore holds uploaded resume files.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Publisher pushes jobs and status updates onto the message broker.
type Publisher interface {
	PublishJob(job ResumeJob) error
	PublishStatus(update StatusUpdate) error
}

// ChannelSender posts a text message into a chat channel.
type ChannelSender interface {
	SendToChannel(channelID, text string) error
}

// AppConfig carries the collaborators shared by the HTTP API, the bot and
// the worker pool. Any of them may be nil when the matching feature is
// not configured.
type AppConfig struct {
	DB          database.Querier
	Store       ObjectStore
	Publisher   Publisher
	Suggester   TitleSuggester
	Bot         ChannelSender
	R2          *R2Config
	RABBITMQUrl string
}

type ResumeJob struct {
	ResumeID uuid.UUID `json:"resume_id"`
}

type StatusUpdate struct {
	ResumeID  uuid.UUID `json:"resume_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type JobTitle struct {
	Title  string `json:"title"`
	Rank   int    `json:"rank"`
	Reason string `json:"reason,omitempty"`
}

type SuggestionResult struct {
	JobTitles []JobTitle `json:"job_titles"`
	// Error result entry
	IsErrorResult bool   `json:"is_error_result"`
	Error         string `json:"error,omitempty"`
}

type ResumeStatusResponse struct {
	ID        uuid.UUID  `json:"id"`
	Filename  string     `json:"filename"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	JobTitles []JobTitle `json:"job_titles,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type SuggestTitlesResponse struct {
	Filename  string          `json:"filename"`
	Sections  sections.Result `json:"sections"`
	JobTitles []JobTitle      `json:"job_titles"`
}
