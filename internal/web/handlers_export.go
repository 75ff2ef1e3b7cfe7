package web

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/tabexport/internal/core"
	"github.com/JonMunkholm/tabexport/internal/logging"
	"github.com/JonMunkholm/tabexport/internal/sink"
)

// exportRequest is the body of POST /api/export/{format} and /api/preview.
type exportRequest struct {
	Records []core.Record      `json:"records"`
	Config  core.ConfigOptions `json:"config"`
}

// advancedRequest projects records onto explicit columns or a preset.
type advancedRequest struct {
	Records []core.Record       `json:"records"`
	Config  core.ConfigOptions  `json:"config"`
	Columns []core.ExportColumn `json:"columns"`
	Preset  string              `json:"preset"`
}

// filteredRequest filters and sorts records before export.
type filteredRequest struct {
	Records   []core.Record      `json:"records"`
	Config    core.ConfigOptions `json:"config"`
	Filters   json.RawMessage    `json:"filters"`
	SortBy    string             `json:"sortBy"`
	SortOrder string             `json:"sortOrder"`
}

type batchRequest struct {
	Jobs []batchJobRequest `json:"jobs"`
}

type batchJobRequest struct {
	Records  []core.Record      `json:"records"`
	Filename string             `json:"filename"`
	Format   string             `json:"format"`
	Config   core.ConfigOptions `json:"config"`
}

// batchJobResponse reports one job. Content is base64 in JSON.
type batchJobResponse struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Records   int    `json:"records"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	Content   []byte `json:"content,omitempty"`
}

type batchResponse struct {
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Jobs      []batchJobResponse `json:"jobs"`
}

// responseSink writes a delivered artifact as the HTTP response body.
type responseSink struct {
	w       http.ResponseWriter
	written bool
}

func (rs *responseSink) Deliver(_ context.Context, a core.Artifact) error {
	h := rs.w.Header()
	h.Set("Content-Type", a.MediaType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	h.Set("Content-Length", strconv.Itoa(len(a.Content)))
	rs.w.WriteHeader(http.StatusOK)
	rs.written = true

	_, err := rs.w.Write(a.Content)
	return err
}

// Present serves the print document inline so the browser opens its print
// dialog.
func (rs *responseSink) Present(_ context.Context, _, document string) error {
	rs.w.Header().Set("Content-Type", core.MediaHTML+"; charset=utf-8")
	rs.w.WriteHeader(http.StatusOK)
	rs.written = true

	_, err := rs.w.Write([]byte(document))
	return err
}

// exporter builds a per-request Exporter. presenter may be nil.
func (s *Server) exporter(ctx context.Context, out core.Sink, presenter core.Presenter) *core.Exporter {
	opts := []core.Option{
		core.WithPolicy(s.policy),
		core.WithLogger(logging.FromContext(ctx)),
		core.WithConcurrency(s.cfg.Export.BatchConcurrency),
	}
	if presenter != nil {
		opts = append(opts, core.WithPresenter(presenter))
	}
	if s.metrics != nil {
		opts = append(opts, core.WithObserver(s.metrics))
	}
	return core.New(out, opts...)
}

// runExport holds an export slot while fn writes the artifact to the response.
func (s *Server) runExport(w http.ResponseWriter, r *http.Request, format core.ExportFormat, fn func(ctx context.Context, e *core.Exporter) error) {
	release, err := s.limiter.Acquire(r.Context(), format)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer release()

	rs := &responseSink{w: w}
	err = fn(r.Context(), s.exporter(r.Context(), rs, rs))
	if err == nil {
		return
	}
	if rs.written {
		// Headers are gone; the client sees a truncated body.
		logging.FromContext(r.Context()).Error("export write failed", "error", err)
		return
	}
	s.respondError(w, r, err, statusFor(err))
}

// decodeJSON reads a bounded JSON body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return nil
}

// formatParam parses the {format} URL parameter.
func formatParam(r *http.Request) (core.ExportFormat, error) {
	return core.ParseFormat(chi.URLParam(r, "format"))
}

// handleExport exports the posted records in the requested format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := formatParam(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	var req exportRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	s.runExport(w, r, format, func(ctx context.Context, e *core.Exporter) error {
		return e.Export(ctx, format, req.Records, req.Config.Config())
	})
}

// handleExportAdvanced projects the posted records onto columns, either given
// inline or taken from a preset, before exporting.
func (s *Server) handleExportAdvanced(w http.ResponseWriter, r *http.Request) {
	format, err := formatParam(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	var req advancedRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	columns := req.Columns
	if len(columns) == 0 {
		if req.Preset == "" {
			s.respondError(w, r, fmt.Errorf("%w: columns or preset required", errInvalidBody), http.StatusBadRequest)
			return
		}
		p, err := core.MustPreset(req.Preset)
		if err != nil {
			s.respondError(w, r, err, http.StatusNotFound)
			return
		}
		columns = p.Columns
	}

	s.runExport(w, r, format, func(ctx context.Context, e *core.Exporter) error {
		return e.ExportAdvanced(ctx, req.Records, columns, format, req.Config.Config())
	})
}

// handleExportFiltered filters and optionally sorts the posted records.
func (s *Server) handleExportFiltered(w http.ResponseWriter, r *http.Request) {
	format, err := formatParam(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	var req filteredRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	var filters core.Filters
	if len(req.Filters) > 0 && string(req.Filters) != "null" {
		filters, err = core.DecodeFilters(req.Filters)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %w", errInvalidFilter, err), http.StatusBadRequest)
			return
		}
	}

	s.runExport(w, r, format, func(ctx context.Context, e *core.Exporter) error {
		return e.ExportFiltered(ctx, req.Records, filters, req.SortBy, sortOrder(req.SortOrder), format, req.Config.Config())
	})
}

// batchSlot labels the limiter slot a batch request holds.
const batchSlot core.ExportFormat = "batch"

// handleExportBatch runs every job and reports each outcome. Job failures
// never fail the request; the batch takes a single export slot.
func (s *Server) handleExportBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if len(req.Jobs) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: no jobs", errInvalidBody), http.StatusBadRequest)
		return
	}

	jobs := make([]core.BatchJob, len(req.Jobs))
	for i, j := range req.Jobs {
		format, err := core.ParseFormat(j.Format)
		if err != nil {
			// Left as given so the job reports an unsupported format.
			format = core.ExportFormat(j.Format)
		}
		jobs[i] = core.BatchJob{
			Records:  j.Records,
			Filename: j.Filename,
			Format:   format,
			Config:   j.Config.Config(),
		}
	}

	// The whole batch shares one slot.
	release, err := s.limiter.Acquire(r.Context(), batchSlot)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer release()

	mem := &sink.Memory{}
	result := s.exporter(r.Context(), mem, nil).ExportMultiple(r.Context(), jobs)

	resp := batchResponse{Jobs: make([]batchJobResponse, len(result.Results))}
	for i, res := range result.Results {
		job := batchJobResponse{
			ID:       res.ID.String(),
			Filename: res.Filename,
			Format:   string(res.Format),
			Records:  res.Records,
		}
		if res.Err != nil {
			msg := core.MapError(res.Err)
			job.Error = msg.Message
			job.Code = msg.Code
			resp.Failed++
		} else if a, ok := mem.Find(deliveredName(res)); ok {
			job.Filename = a.Filename
			job.MediaType = a.MediaType
			job.Content = a.Content
			resp.Succeeded++
		} else {
			resp.Succeeded++
		}
		resp.Jobs[i] = job
	}

	if err := result.Err(); err != nil {
		logging.FromContext(r.Context()).Warn("batch export had failures",
			"failed", resp.Failed,
			"error", err,
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

// deliveredName is the filename the exporter used for a job.
func deliveredName(res core.JobResult) string {
	if res.Filename != "" {
		return res.Filename
	}
	switch res.Format {
	case core.FormatExcel:
		return core.DefaultExcelFilename
	case core.FormatJSON:
		return core.DefaultJSONFilename
	}
	return core.DefaultCSVFilename
}

// handlePreview reports what an export of the posted records would contain.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, core.PreviewRecords(req.Records, req.Config.Config(), core.NewFormatter(s.policy)))
}

// handleExportStatus reports export slot usage.
func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.limiter.Status())
}

func sortOrder(s string) core.SortOrder {
	if core.SortOrder(s) == core.SortDesc {
		return core.SortDesc
	}
	return core.SortAsc
}
