package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	_ "github.com/lib/pq"
	"github.com/muhammadolammi/resumeparser/internal/database"
	"github.com/muhammadolammi/resumeparser/internal/extract"
	"github.com/muhammadolammi/resumeparser/internal/sections"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
)

var rootCmd = &cobra.Command{
	Use:          "resumeparser",
	Short:        "Split resumes into sections and suggest job titles",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when DISCORD_TOKEN is set, the Discord bot",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued resumes and store job title suggestions",
	Args:  cobra.NoArgs,
	RunE:  runWorkers,
}

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Print the sections found in a resume file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().Bool("text", false, "print the extracted plain text instead of sections")
	rootCmd.AddCommand(serveCmd, workerCmd, extractCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildApp wires the collaborators the config enables. The returned
// cleanup closes whatever was opened.
func buildApp(ctx context.Context, cfg Config) (*AppConfig, func(), error) {
	app := &AppConfig{RABBITMQUrl: cfg.RabbitMQUrl}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.GoogleApiKey != "" {
		suggester, err := newAgentSuggester(cfg.GoogleApiKey, cfg.GeminiModel)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to create agent: %w", err)
		}
		app.Suggester = suggester
	} else {
		log.Println("GOOGLE_API_KEY not set, job title suggestions disabled")
	}

	if !cfg.PipelineEnabled() {
		log.Println("DB_URL, RABBITMQ_URL or R2 settings missing, resume pipeline disabled")
		return app, cleanup, nil
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return nil, cleanup, fmt.Errorf("error opening db: %w", err)
	}
	closers = append(closers, func() { db.Close() })
	app.DB = database.New(db)

	r2Config := cfg.R2
	app.R2 = &r2Config
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2Config.AccessKey, r2Config.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, cleanup, fmt.Errorf("error creating aws config: %w", err)
	}
	app.Store = newR2Store(awsConfig, r2Config)

	conn, err := amqp.Dial(cfg.RabbitMQUrl)
	if err != nil {
		return nil, cleanup, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	closers = append(closers, func() { conn.Close() })
	app.Publisher = &rabbitPublisher{conn: conn}

	return app, cleanup, nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApp(ctx, cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	if cfg.DiscordToken != "" {
		bot, err := NewBot(cfg.DiscordToken, app.Suggester)
		if err != nil {
			return err
		}
		if err := bot.Open(); err != nil {
			return fmt.Errorf("failed to open discord session: %w", err)
		}
		defer bot.Close()
		app.Bot = bot
		log.Println("Discord bot connected")
	} else {
		log.Println("DISCORD_TOKEN not set, Discord bot disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting resume parser on port %s...", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runWorkers(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApp(ctx, cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	log.Printf("Starting %d workers consumer pool", cfg.WorkerCount)
	app.StartConsumerWorkerPool(ctx, cfg.WorkerCount)
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := extract.FromFile(args[0])
	if err != nil {
		return err
	}
	if raw, _ := cmd.Flags().GetBool("text"); raw {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sections.Extract(text))
}
