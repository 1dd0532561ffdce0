package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/muhammadolammi/resumeparser/internal/extract"
	"github.com/muhammadolammi/resumeparser/internal/sections"
)

const (
	commandPrefix       = "!"
	discordMessageLimit = 2000
	maxAttachmentBytes  = 10 << 20 // 10 MB
	attachmentTimeout   = 2 * time.Minute
)

var ErrChannelNotFound = errors.New("channel not found")

const helpText = "Commands:\n" +
	"`!ping` check the bot is alive\n" +
	"`!parse` + attachment: extract skills, work experience and projects\n" +
	"`!suggest` + attachment: also suggest job titles\n" +
	"Attaching a resume without a command works like `!parse`."

type attachment struct {
	Filename string
	URL      string
	Size     int
}

// incomingMessage is the platform-neutral part of a chat message the bot
// reacts to.
type incomingMessage struct {
	AuthorID    string
	Content     string
	Attachments []attachment
}

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

type Bot struct {
	session   *discordgo.Session
	suggester TitleSuggester
	fetch     fetchFunc
}

// NewBot prepares a Discord session. Call Open to connect.
func NewBot(token string, suggester TitleSuggester) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := &Bot{
		session:   s,
		suggester: suggester,
		fetch:     httpFetcher(&http.Client{Timeout: 30 * time.Second}),
	}
	s.AddHandler(b.onMessageCreate)
	return b, nil
}

func (b *Bot) Open() error {
	return b.session.Open()
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// SendToChannel posts text into channelID. It returns ErrChannelNotFound
// when the bot cannot see the channel.
func (b *Bot) SendToChannel(channelID, text string) error {
	if _, err := b.session.State.Channel(channelID); err != nil {
		if _, err := b.session.Channel(channelID); err != nil {
			return fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
		}
	}
	if _, err := b.session.ChannelMessageSend(channelID, clip(text, discordMessageLimit)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	msg := incomingMessage{AuthorID: m.Author.ID, Content: m.Content}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, attachment{Filename: a.Filename, URL: a.URL, Size: a.Size})
	}

	ctx, cancel := context.WithTimeout(context.Background(), attachmentTimeout)
	defer cancel()
	for _, reply := range b.respond(ctx, msg) {
		if _, err := s.ChannelMessageSendReply(m.ChannelID, reply, m.Reference()); err != nil {
			log.Printf("failed to reply in channel %s: %v", m.ChannelID, err)
		}
	}
}

// respond returns the replies for msg, one per attachment for resume
// commands. It never fails: problems become user-facing replies.
func (b *Bot) respond(ctx context.Context, msg incomingMessage) []string {
	cmd, isCommand := parseCommand(msg.Content)
	switch {
	case cmd == "ping":
		return []string{"Pong!"}
	case cmd == "help":
		return []string{helpText}
	case cmd == "parse" || cmd == "suggest" || !isCommand:
		if len(msg.Attachments) == 0 {
			if !isCommand {
				return nil
			}
			return []string{fmt.Sprintf("Attach a resume (.pdf, .docx, .doc or .txt) to use `!%s`.", cmd)}
		}
		replies := make([]string, 0, len(msg.Attachments))
		for _, a := range msg.Attachments {
			replies = append(replies, b.handleAttachment(ctx, msg.AuthorID, a, cmd == "suggest"))
		}
		return replies
	default:
		log.Printf("ignoring unknown command %q", cmd)
		return nil
	}
}

func parseCommand(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, commandPrefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, commandPrefix))
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}

func (b *Bot) handleAttachment(ctx context.Context, userID string, a attachment, suggest bool) string {
	if !extract.Supported(a.Filename) {
		return fmt.Sprintf("Could not read %s (unsupported_format): send a .pdf, .docx, .doc or .txt file.", a.Filename)
	}
	if a.Size > maxAttachmentBytes {
		return fmt.Sprintf("Could not read %s: file is larger than 10 MB.", a.Filename)
	}

	data, err := b.fetch(ctx, a.URL)
	if err != nil {
		log.Printf("failed to download attachment %s: %v", a.Filename, err)
		return fmt.Sprintf("Could not download %s.", a.Filename)
	}
	text, err := extract.FromBytes(a.Filename, data)
	if err != nil {
		log.Printf("failed to extract %s: %v", a.Filename, err)
		return fmt.Sprintf("Could not read %s (%s).", a.Filename, extract.KindName(err))
	}

	secs := sections.Extract(text)
	var (
		titles []JobTitle
		note   string
	)
	if suggest {
		switch {
		case b.suggester == nil:
			note = "Job title suggestions are not enabled."
		case secs.Empty():
			note = "No recognizable sections to base job title suggestions on."
		default:
			titles, err = b.suggester.SuggestTitles(ctx, userID, secs)
			if err != nil {
				log.Printf("suggestion failed for %s: %v", a.Filename, err)
				note = "Could not suggest job titles right now."
			}
		}
	}
	return formatReply(a.Filename, secs, titles, note)
}

// formatReply renders sections and titles as one chat message, clipping
// each section so the whole message fits the platform limit.
func formatReply(filename string, secs sections.Result, titles []JobTitle, note string) string {
	var tail strings.Builder
	if len(titles) > 0 {
		tail.WriteString("\n\n**Suggested job titles:**")
		for _, jt := range titles {
			fmt.Fprintf(&tail, "\n%d. %s", jt.Rank, jt.Title)
			if jt.Reason != "" {
				fmt.Fprintf(&tail, " - %s", jt.Reason)
			}
		}
	}
	if note != "" {
		tail.WriteString("\n\n" + note)
	}

	head := fmt.Sprintf("**%s**", filename)
	overhead := utf8.RuneCountInString(head) + utf8.RuneCountInString(tail.String())
	for _, s := range sectionLabels {
		overhead += utf8.RuneCountInString(fmt.Sprintf("\n**%s:**\n", s.Label))
	}
	budget := (discordMessageLimit - overhead) / len(sectionLabels)
	if budget < 20 {
		budget = 20
	}

	var b strings.Builder
	b.WriteString(head)
	for _, s := range sectionLabels {
		text := secs.Get(s.ID)
		if text == "" {
			text = "_none found_"
		}
		fmt.Fprintf(&b, "\n**%s:**\n%s", s.Label, clip(text, budget))
	}
	b.WriteString(tail.String())
	return clip(b.String(), discordMessageLimit)
}

// clip shortens s to at most n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func httpFetcher(client *http.Client) fetchFunc {
	return func(ctx context.Context, url string) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to download: status %s", resp.Status)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		if len(data) > maxAttachmentBytes {
			return nil, errors.New("attachment exceeds size limit")
		}
		return data, nil
	}
}
