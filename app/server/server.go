package server

import (
	"context"
	"log"
	"log/slog"

	"docvector/app/api"
	"docvector/chunker"
	"docvector/engine"
	"docvector/ingest"
	"docvector/model"
	"docvector/store"
	"docvector/types"

	"github.com/gofiber/fiber/v2"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    64 * 1024 * 1024, // PDF uploads
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
	app        *fiber.App
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("error to shutdown server", "error", err.Error())
		}
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()
	cfg := types.LoadConfig()

	storer, err := store.NewStore(ctx, cfg)
	if err != nil {
		log.Fatal("error to connect to vector store: ", err)
		return
	}

	embedder, err := model.NewEmbedder(cfg)
	if err != nil {
		log.Fatal("error to create embedder: ", err)
		return
	}

	splitter, err := chunker.FromConfig(cfg)
	if err != nil {
		log.Fatal("error to create chunker: ", err)
		return
	}

	pipeline := ingest.New(cfg, storer, embedder, splitter)
	if err := pipeline.Init(ctx); err != nil {
		log.Fatal("error to create collection: ", err)
		return
	}

	var (
		app             = fiber.New(config)
		checkHandler    = api.NewCheckHandler(storer, cfg.Collection)
		documentHandler = api.NewDocumentHandler(pipeline)
		searchHandler   = api.NewSearchHandler(engine.New(cfg, storer, embedder))
		check           = app.Group("/check")
		apiv1           = app.Group("/api/v1")
	)
	s.app = app

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/documents", documentHandler.HandleUpload)
	apiv1.Get("/documents", documentHandler.HandleListDocuments)
	apiv1.Get("/documents/:id", documentHandler.HandleGetDocument)
	apiv1.Delete("/documents/:id", documentHandler.HandleDeleteDocument)
	apiv1.Post("/search", searchHandler.HandleSearch)

	err = app.Listen(s.listenAddr)
	if err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}
