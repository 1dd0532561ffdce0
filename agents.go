package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/muhammadolammi/resumeparser/internal/sections"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const agentName = "job title suggester"

// ErrNoSections is returned when a resume has no recognised sections to
// base suggestions on.
var ErrNoSections = errors.New("no recognizable resume sections")

func GetAgent(apiKey, modelName, agentName string) (agent.Agent, error) {
	ctx := context.Background()
	model, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	customAgent, err := llmagent.New(llmagent.Config{
		Name:        agentName,
		Model:       model,
		Description: "Suggest job titles from resume sections",
		Instruction: prompt(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return customAgent, nil
}

type agentSuggester struct {
	appName        string
	runner         *runner.Runner
	sessionService session.Service
}

func newAgentSuggester(apiKey, modelName string) (*agentSuggester, error) {
	suggester, err := GetAgent(apiKey, modelName, agentName)
	if err != nil {
		return nil, err
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        suggester.Name(),
		Agent:          suggester,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return &agentSuggester{
		appName:        suggester.Name(),
		runner:         r,
		sessionService: sessionService,
	}, nil
}

func (s *agentSuggester) SuggestTitles(ctx context.Context, userID string, secs sections.Result) ([]JobTitle, error) {
	if secs.Empty() {
		return nil, ErrNoSections
	}
	if userID == "" {
		userID = "anonymous"
	}

	agentSession, err := s.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   s.appName,
		UserID:    userID,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() {
		err := s.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   agentSession.Session.AppName(),
			UserID:    agentSession.Session.UserID(),
			SessionID: agentSession.Session.ID(),
		})
		if err != nil {
			log.Printf("failed to delete agent session %s: %v", agentSession.Session.ID(), err)
		}
	}()

	msg := BuildSuggestionPrompt(secs)
	finalOutput, err := retry(ctx, 2, func() (string, error) {
		stream := s.runner.Run(ctx, agentSession.Session.UserID(), agentSession.Session.ID(), &genai.Content{
			Role: "user",
			Parts: []*genai.Part{
				{Text: msg},
			},
		}, agent.RunConfig{})

		var output string
		for event, err := range stream {
			if err != nil {
				return "", err
			}
			if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
				output = event.Content.Parts[0].Text
			}
		}

		if output == "" {
			return "", fmt.Errorf("empty agent response")
		}
		return output, nil
	})
	if err != nil {
		return nil, fmt.Errorf("agent stream error: %w", err)
	}

	return parseJobTitles(finalOutput)
}

// parseJobTitles decodes the agent's JSON reply into a ranked list,
// renumbering ranks from 1 and keeping at most maxJobTitles entries.
func parseJobTitles(raw string) ([]JobTitle, error) {
	cleaned := CleanJson(raw)
	if cleaned == "" {
		return nil, errors.New("empty response from agent")
	}

	var payload struct {
		JobTitles []JobTitle `json:"job_titles"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}

	titles := make([]JobTitle, 0, len(payload.JobTitles))
	for _, jt := range payload.JobTitles {
		jt.Title = strings.TrimSpace(jt.Title)
		jt.Reason = strings.TrimSpace(jt.Reason)
		if jt.Title == "" {
			continue
		}
		titles = append(titles, jt)
	}
	if len(titles) == 0 {
		return nil, errors.New("no job titles in agent response")
	}

	// Unranked entries (rank <= 0) go last, in the order given.
	sort.SliceStable(titles, func(i, j int) bool {
		ri, rj := titles[i].Rank, titles[j].Rank
		if ri <= 0 {
			return false
		}
		if rj <= 0 {
			return true
		}
		return ri < rj
	})

	if len(titles) > maxJobTitles {
		titles = titles[:maxJobTitles]
	}
	for i := range titles {
		titles[i].Rank = i + 1
	}
	return titles, nil
}
