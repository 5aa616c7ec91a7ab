package api

import (
	"context"
	"log/slog"
	"strings"

	"docsum/loader"
	"docsum/types"

	"github.com/gofiber/fiber/v2"
)

type DocumentSummarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type SummarySaver interface {
	Save(context.Context, types.Summary) error
}

type FileHandler struct {
	extractor  loader.Extractor
	summarizer DocumentSummarizer
	store      SummarySaver
	logger     *slog.Logger
}

func NewFileHandler(e loader.Extractor, s DocumentSummarizer, st SummarySaver, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		extractor:  e,
		summarizer: s,
		store:      st,
		logger:     logger.With(slog.String("module", "upload")),
	}
}

// HandleUpload extracts the uploaded PDF, summarizes it and replaces the
// stored summary.
func (h *FileHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader.Filename == "" {
		return ErrNoFile()
	}

	if !strings.HasSuffix(fileHeader.Filename, ".pdf") {
		return ErrInvalidFileType()
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("error opening upload", "file", fileHeader.Filename, "error", err)
		return ErrExtraction()
	}
	defer file.Close()

	ctx := c.UserContext()

	text, err := h.extractor.Extract(ctx, file)
	if err != nil {
		h.logger.Error("error extracting text from PDF", "file", fileHeader.Filename, "error", err)
		return ErrExtraction()
	}

	summary, err := h.summarizer.Summarize(ctx, text)
	if err != nil {
		h.logger.Error("error summarizing document", "file", fileHeader.Filename, "error", err)
		return ErrInternal()
	}

	record := types.NewSummary(fileHeader.Filename, summary)
	if err := h.store.Save(ctx, record); err != nil {
		h.logger.Error("error writing summary", "file", fileHeader.Filename, "error", err)
		return ErrInternal()
	}

	h.logger.Info("summary stored", "file", fileHeader.Filename, "id", record.ID, "chars", len(summary))
	return c.JSON(types.MessageResponse{Message: "File processed successfully"})
}
