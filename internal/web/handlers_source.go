package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/tabexport/internal/core"
	"github.com/JonMunkholm/tabexport/internal/source"
)

type healthResponse struct {
	Status  string                    `json:"status"`
	Source  string                    `json:"source"`
	Exports core.ExportLimiterStatus `json:"exports"`
}

// handleHealth reports liveness. With a source configured it is pinged and a
// failure turns the response into a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Source: "disabled", Exports: s.limiter.Status()}
	status := http.StatusOK

	if s.source != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp.Source = "ok"
		if err := s.source.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Source = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

type presetsResponse struct {
	Groups  []string      `json:"groups"`
	Presets []core.Preset `json:"presets"`
}

// handleListPresets lists every registered column preset.
func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, presetsResponse{
		Groups:  core.PresetGroups(),
		Presets: core.AllPresets(),
	})
}

// handleGetPreset returns one preset by key.
func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := core.MustPreset(chi.URLParam(r, "key"))
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleExportSource reads a preset's table from the configured source and
// exports it projected onto the preset's columns.
//
// Query parameters:
//   - preset: preset key (required)
//   - q: free-text search across the preset's columns
//   - filter[key]: op:value filter on a preset column key
//   - sort, dir: sort key and asc/desc
//   - limit: maximum rows read
//   - filename: output name; defaults to <preset>_<timestamp>.<ext>
func (s *Server) handleExportSource(w http.ResponseWriter, r *http.Request) {
	format, err := formatParam(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	params := r.URL.Query()
	preset, err := core.MustPreset(params.Get("preset"))
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	if s.source == nil {
		s.respondError(w, r, source.ErrSourceNotConfigured, http.StatusServiceUnavailable)
		return
	}

	filters, err := parseFilterParams(params, preset)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	sortBy := params.Get("sort")
	if sortBy != "" && !hasColumn(preset, sortBy) {
		s.respondError(w, r, fmt.Errorf("%w: unknown sort column %q", errInvalidFilter, sortBy), http.StatusBadRequest)
		return
	}

	query := source.PresetQuery(preset)
	query.Search = strings.TrimSpace(params.Get("q"))
	query.Limit = parseIntParam(params, "limit", 0)

	filename := params.Get("filename")
	if filename == "" {
		filename = fmt.Sprintf("%s_%s.%s", preset.Key, time.Now().Format("20060102_150405"), extension(format))
	}

	s.runExport(w, r, format, func(ctx context.Context, e *core.Exporter) error {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Database.QueryTimeout)
		records, err := s.source.Fetch(fetchCtx, query)
		cancel()
		if err != nil {
			return err
		}

		records = core.ApplyFilters(records, filters)
		if sortBy != "" {
			records = core.SortRecordsLocale(records, sortBy, sortOrder(params.Get("dir")), s.policy.Locale)
		}
		return e.ExportAdvanced(ctx, records, preset.Columns, format, core.ExportConfig{Filename: filename})
	})
}

// parseFilterParams reads filter[key]=op:value parameters. Keys must name a
// preset column.
func parseFilterParams(params url.Values, p core.Preset) (core.Filters, error) {
	filters := make(core.Filters)
	for name, values := range params {
		if !strings.HasPrefix(name, "filter[") || !strings.HasSuffix(name, "]") {
			continue
		}

		key := name[len("filter[") : len(name)-1]
		if !hasColumn(p, key) {
			return nil, fmt.Errorf("%w: unknown column %q", errInvalidFilter, key)
		}
		if len(values) == 0 || values[0] == "" {
			continue
		}

		f, err := core.ParseFilterParam(values[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errInvalidFilter, key, err)
		}
		filters[key] = f
	}
	return filters, nil
}

func hasColumn(p core.Preset, key string) bool {
	for _, c := range p.Columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(params url.Values, name string, defaultVal int) int {
	val := params.Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func extension(f core.ExportFormat) string {
	if f == core.FormatExcel {
		return "xlsx"
	}
	return string(f)
}
