package api

import (
	"fmt"
	"io"
	"time"

	"docvector/engine"
	"docvector/ingest"
	"docvector/loader"
	"docvector/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultTopK = 10

type DocumentHandler struct {
	pipeline *ingest.Pipeline
}

func NewDocumentHandler(pipeline *ingest.Pipeline) *DocumentHandler {
	return &DocumentHandler{
		pipeline: pipeline,
	}
}

// HandleUpload accepts a PDF, extracts its text and starts ingestion. The
// response returns at once with the chunk count; progress is visible through
// the document listing while embedding continues in the background.
func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	text, err := loader.ExtractText(data)
	if err != nil {
		return err
	}

	doc, err := h.pipeline.Ingest(c.Context(), text, fileHeader.Filename)
	if err != nil {
		return err
	}

	fmt.Printf("[UPLOAD] File %s accepted: %d chunks\n", fileHeader.Filename, doc.TotalChunks)

	return c.Status(fiber.StatusAccepted).JSON(types.UploadResponse{
		DocumentID:  doc.ID.String(),
		Filename:    doc.Filename,
		TotalChunks: doc.TotalChunks,
		Status:      doc.Status,
	})
}

func (h *DocumentHandler) HandleListDocuments(c *fiber.Ctx) error {
	docs, err := h.pipeline.List(c.Context())
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []types.Document{}
	}
	return c.JSON(types.ListResponse{Documents: docs})
}

func (h *DocumentHandler) HandleGetDocument(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	doc, found, err := h.pipeline.Get(c.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound(id, "document")
	}
	return c.JSON(doc)
}

// HandleDeleteDocument removes a document and all its chunks. Unknown ids
// report zero removed points instead of failing, so delete stays idempotent.
func (h *DocumentHandler) HandleDeleteDocument(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	removed, err := h.pipeline.Delete(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(types.DeleteResponse{
		DocumentID:    id.String(),
		PointsRemoved: removed,
	})
}

type SearchHandler struct {
	engine *engine.Engine
}

func NewSearchHandler(eng *engine.Engine) *SearchHandler {
	return &SearchHandler{
		engine: eng,
	}
}

func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var params types.SearchParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	topK := params.TopK
	if topK == 0 {
		topK = defaultTopK
	}

	results, err := h.engine.Search(c.Context(), params.Query, topK)
	if err != nil {
		return err
	}
	if results == nil {
		results = []types.SearchResult{}
	}

	return c.JSON(types.SearchResponse{
		Query:     params.Query,
		Results:   results,
		Timestamp: time.Now(),
	})
}
