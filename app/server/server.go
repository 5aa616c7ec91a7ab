package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docsum/app/agent"
	"docsum/app/api"
	"docsum/app/middleware"
	"docsum/config"
	"docsum/loader"
	"docsum/model"
	"docsum/relay"
	"docsum/store"
	"docsum/tokenizer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything the routes need.
type Handlers struct {
	Check   *api.CheckHandler
	Upload  *api.FileHandler
	Ask     *api.RequestHandler
	Summary *api.SummaryHandler
}

// NewApp builds the fiber application and registers every route.
func NewApp(h Handlers, uploadLimitMB int, logger *slog.Logger) *fiber.App {
	if uploadLimitMB <= 0 {
		uploadLimitMB = 32
	}

	var (
		app = fiber.New(fiber.Config{
			ErrorHandler: api.ErrorHandler,
			BodyLimit:    uploadLimitMB * 1024 * 1024,
		})
		check = app.Group("/check")
		apiv1 = app.Group("/v1")
	)

	app.Use(middleware.RequestLogger(logger))

	check.Get("/healthy", h.Check.HandleHealthy)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiv1.Post("/upload", h.Upload.HandleUpload)
	apiv1.Post("/ask", h.Ask.HandleAsk)
	apiv1.Get("/summary", h.Summary.HandleGetSummary)

	return app
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger

	app   *fiber.App
	store store.SummaryStore
}

func NewServer(cfg config.Config, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
	}
}

// Init wires the store, the model client and the pipeline into the app.
func (s *Server) Init(ctx context.Context) error {
	st, err := store.Open(ctx, s.cfg.Store, s.logger)
	if err != nil {
		return fmt.Errorf("error to open summary store: %w", err)
	}

	llm, err := model.New(s.cfg.LLM, s.logger)
	if err != nil {
		st.Close()
		return err
	}

	tok, err := tokenizer.New()
	if err != nil {
		st.Close()
		return err
	}

	summarizer := agent.NewSummarizer(llm, tok, agent.OptionsFrom(s.cfg.Summary, s.cfg.LLM.Timeout), s.logger)
	answerer := agent.NewAnswerer(llm, st, s.cfg.Summary.AnswerOutputTokens, s.cfg.LLM.Timeout, s.logger)

	s.store = st
	s.app = NewApp(Handlers{
		Check:   api.NewCheckHandler(),
		Upload:  api.NewFileHandler(loader.NewPDFLoader(s.logger), summarizer, st, s.logger),
		Ask:     api.NewRequestHandler(answerer, relay.New(s.cfg.Slack, s.logger), s.cfg.Slack.Channel, s.logger),
		Summary: api.NewSummaryHandler(st, s.logger),
	}, s.cfg.UploadLimitMB, s.logger)

	s.logger.Info("server initialised",
		"store", s.cfg.Store.Kind,
		"provider", s.cfg.LLM.Provider,
		"chunk_tokens", s.cfg.Summary.MaxTokensPerChunk,
		"workers", s.cfg.Summary.Workers)
	return nil
}

// Run blocks serving HTTP until Stop is called or listening fails.
func (s *Server) Run() error {
	s.logger.Info("server listening", "addr", s.cfg.ServerAddr)
	if err := s.app.Listen(s.cfg.ServerAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return err
	}
	return nil
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.ShutdownWithTimeout(10 * time.Second); err != nil {
			s.logger.Error("error shutting down", "error", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("error closing store", "error", err)
		}
	}
	s.logger.Info("server stopped")
}
