package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docsum/loader"
	"docsum/loader/inbox"
	"docsum/types"
)

var ErrNotPDF = errors.New("not a pdf file")

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type Saver interface {
	Save(context.Context, types.Summary) error
}

// Service summarizes every PDF dropped into the inbox and stores the result
// as the current summary, same as an HTTP upload would.
type Service struct {
	logger     *slog.Logger
	watcher    *inbox.Watcher
	extractor  loader.Extractor
	summarizer Summarizer
	store      Saver
}

func New(w *inbox.Watcher, e loader.Extractor, s Summarizer, st Saver, logger *slog.Logger) *Service {
	return &Service{
		logger:     logger.With(slog.String("module", "loader")),
		watcher:    w,
		extractor:  e,
		summarizer: s,
		store:      st,
	}
}

// Run blocks until ctx is cancelled. Files are handled one at a time, each
// upload replaces the previous summary.
func (s *Service) Run(ctx context.Context) {
	fileChan := make(chan string, 10)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watcher.Watch(ctx, fileChan)
	}()

	for path := range fileChan {
		s.handle(ctx, path)
	}
	wg.Wait()
	s.logger.Info("loader service stopped")
}

func (s *Service) handle(ctx context.Context, path string) {
	err := s.Process(ctx, path)
	if ctx.Err() != nil {
		// leave the file in place for the next run
		s.watcher.Done(path)
		return
	}
	if err != nil {
		s.logger.Error("error processing file", "file", path, "error", err)
	}

	dest, moveErr := s.watcher.Archive(path, err != nil)
	if moveErr != nil {
		s.logger.Error("error archiving file, holding it", "file", path, "error", moveErr)
		s.watcher.Hold(path)
		return
	}
	s.watcher.Done(path)
	s.logger.Info("file archived", "file", path, "dest", dest, "failed", err != nil)
}

// Process extracts, summarizes and stores a single file.
func (s *Service) Process(ctx context.Context, path string) error {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".pdf") {
		return ErrNotPDF
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := s.extractor.Extract(ctx, f)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	record := types.NewSummary(name, summary)
	if err := s.store.Save(ctx, record); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	s.logger.Info("summary stored", "file", name, "id", record.ID)
	return nil
}
