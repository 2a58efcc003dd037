// Package datasets is the application layer: upload a file, list and delete
// stored datasets, view a page of rows, and aggregate columns for charts.
package datasets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/aggregate"
	"github.com/KaramelBytes/tabula-cli/internal/infer"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
	"github.com/KaramelBytes/tabula-cli/internal/logging"
	"github.com/KaramelBytes/tabula-cli/internal/query"
	"github.com/KaramelBytes/tabula-cli/internal/store"
	"github.com/KaramelBytes/tabula-cli/internal/table"
)

// Service wires ingestion, inference, storage and the query engine.
type Service struct {
	Store       store.Store
	Logger      *slog.Logger
	InferSample int
	Workers     int
}

// New returns a Service with defaults filled in.
func New(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{Store: st, Logger: logger, InferSample: infer.DefaultSampleRows, Workers: 4}
}

// UploadRequest describes one file to import.
type UploadRequest struct {
	Path        string
	Name        string
	Description string
	Ingest      ingest.Options
}

// UploadResult is the stored dataset plus any ingestion warnings.
type UploadResult struct {
	Dataset  *store.Dataset
	Warnings []string
}

// Upload reads the file, infers column types from its leading rows and
// stores the typed table. The name defaults to the file name.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if !ingest.Supported(req.Path) {
		return nil, fmt.Errorf("%w: %s", ingest.ErrUnsupported, req.Path)
	}
	sh, err := ingest.ReadFile(req.Path, req.Ingest)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", req.Path, err)
	}
	cols := infer.InferColumns(sh.Header, sh.Rows, s.InferSample)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = sh.FileName
	}
	d := &store.Dataset{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		FileName:    sh.FileName,
		FileSize:    sh.FileSize,
		Table:       table.New(cols, sh.Rows),
	}
	if err := s.Store.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}
	s.Logger.Info("dataset uploaded", "dataset", d.ID, "file", sh.FileName, "rows", d.RowCount, "columns", d.ColumnCount)
	for _, w := range sh.Warnings {
		s.Logger.Warn(w, "dataset", d.ID)
	}
	return &UploadResult{Dataset: d, Warnings: sh.Warnings}, nil
}

// List returns dataset metadata, newest first.
func (s *Service) List(ctx context.Context) ([]store.Dataset, error) {
	return s.Store.List(ctx)
}

// Get returns one dataset with its table.
func (s *Service) Get(ctx context.Context, id string) (*store.Dataset, error) {
	return s.Store.Get(ctx, id)
}

// Delete removes a dataset.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("dataset deleted", "dataset", id)
	return nil
}

// View is one page of a dataset.
type View struct {
	Dataset *store.Dataset `json:"dataset"`
	Request query.Request  `json:"request"`
	query.Result
}

// View parses the request parameters (page, limit, search, sortBy,
// sortOrder) and runs the query pipeline over the stored table.
func (s *Service) View(ctx context.Context, id string, params url.Values) (*View, error) {
	d, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req := query.ParseRequest(params)
	res := query.Run(d.Table, req)
	s.Logger.Debug("dataset viewed", "dataset", id, "page", req.Page, "limit", req.Limit, "matched", res.Pagination.TotalRows)
	return &View{Dataset: d, Request: req, Result: res}, nil
}

// ErrNoValueColumns is returned by Chart when no value column is requested.
var ErrNoValueColumns = errors.New("at least one value column is required")

// Chart aggregates each value column by category. Column roles are
// type-checked against the inferred schema before any aggregation runs.
func (s *Service) Chart(ctx context.Context, id, category string, values []string) ([]aggregate.Series, error) {
	if len(values) == 0 {
		return nil, ErrNoValueColumns
	}
	d, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if err := aggregate.CheckTypes(d.Table, aggregate.Request{Category: category, Value: v}); err != nil {
			return nil, err
		}
	}
	series, err := aggregate.Many(d.Table, category, values, s.Workers)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug("chart aggregated", "dataset", id, "category", category, "series", len(series))
	return series, nil
}
