package main

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/respiratools/bars/internal/dataset"
	"github.com/respiratools/bars/internal/errors"
	"github.com/respiratools/bars/internal/report"
	"github.com/respiratools/bars/internal/scoring"
	"github.com/respiratools/bars/internal/types"
)

// parseRecords reads the submitted table from either a multipart file upload
// or a JSON body of pasted rows. The second return value reports whether the
// client asked for charts in the scoring response.
func (s *server) parseRecords(c *gin.Context) ([]dataset.Record, bool, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, false, errors.NewValidationError("upload must include a 'file' field")
		}

		f, err := fileHeader.Open()
		if err != nil {
			return nil, false, errors.NewParseError("failed to open uploaded file", err)
		}
		defer f.Close()

		records, err := dataset.ParseUpload(fileHeader.Filename, f, s.limits)
		if err != nil {
			return nil, false, toInputError(err)
		}

		renderCharts := c.DefaultPostForm("render_charts", "true") == "true"
		return records, renderCharts, nil
	}

	var req types.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, false, errors.NewParseError("invalid JSON body", err)
	}

	records, err := dataset.FromRows(req.Rows, s.limits)
	if err != nil {
		return nil, false, toInputError(err)
	}
	return records, req.RenderCharts, nil
}

// toInputError maps dataset failures onto the API error categories. Missing
// required columns are a validation problem the user can fix; anything else
// means the table itself could not be read.
func toInputError(err error) error {
	var missing *dataset.MissingColumnsError
	if stderrors.As(err, &missing) {
		return errors.NewValidationError(missing.Error())
	}
	return errors.NewParseError(err.Error(), err)
}

func (s *server) abortWith(c *gin.Context, err error) {
	appErr := errors.ToAppError(err)
	appErr.RequestID = c.GetString("request_id")
	errors.LogError(c, appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
}

func (s *server) handleScore(c *gin.Context) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.ScoreTimeout)
	defer cancel()

	records, renderCharts, err := s.parseRecords(c)
	if err != nil {
		s.abortWith(c, err)
		return
	}

	scored := scoring.ScoreAll(records)
	groupMeans := scoring.AllGroupMeans(records)

	resp := types.ScoreResponse{
		Rows:           scoring.Rows(scored),
		ResponseCounts: scoring.ResponseCounts(scored),
		GroupMeans:     groupMeans,
		Stats:          scoring.AllStats(records),
	}

	if renderCharts {
		renderStart := time.Now()
		pngs, err := s.renderer.RenderAll(ctx, records, groupMeans)
		if err != nil {
			if ctx.Err() != nil {
				s.abortWith(c, ctx.Err())
			} else {
				s.abortWith(c, errors.NewRenderError("chart rendering failed", err))
			}
			return
		}

		encoded := make(map[string]string, len(pngs))
		for name, png := range pngs {
			encoded[name] = base64.StdEncoding.EncodeToString(png)
		}
		resp.Charts = encoded

		s.metrics.RecordChartsRendered(len(pngs))
		s.logger.RenderLogger(len(pngs), time.Since(renderStart))
	}

	s.metrics.RecordScoring(len(records))
	s.logger.ScoringLogger(len(records), treatmentCount(records), time.Since(start), c.GetBool("cache_hit"))

	c.JSON(http.StatusOK, resp)
}

func (s *server) handleReport(c *gin.Context) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.ScoreTimeout)
	defer cancel()

	records, _, err := s.parseRecords(c)
	if err != nil {
		s.abortWith(c, err)
		return
	}

	scored := scoring.ScoreAll(records)
	groupMeans := scoring.AllGroupMeans(records)

	pngs, err := s.renderer.RenderAll(ctx, records, groupMeans)
	if err != nil {
		if ctx.Err() != nil {
			s.abortWith(c, ctx.Err())
		} else {
			s.abortWith(c, errors.NewRenderError("chart rendering failed", err))
		}
		return
	}
	s.metrics.RecordChartsRendered(len(pngs))

	var buf bytes.Buffer
	if err := s.reports.Build(&buf, scoring.Rows(scored), pngs, time.Now()); err != nil {
		s.abortWith(c, errors.NewExportError("failed to build PDF report", err))
		return
	}

	s.metrics.IncrementReportsBuilt()
	s.logger.ExportLogger("pdf", buf.Len(), time.Since(start))

	c.Header("Content-Disposition", `attachment; filename="biologic_response_report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *server) handleExportCSV(c *gin.Context) {
	start := time.Now()

	records, _, err := s.parseRecords(c)
	if err != nil {
		s.abortWith(c, err)
		return
	}

	scored := scoring.ScoreAll(records)

	var buf bytes.Buffer
	if err := report.WriteScoredCSV(&buf, scoring.Rows(scored)); err != nil {
		s.abortWith(c, errors.NewExportError("failed to build scored CSV", err))
		return
	}

	s.logger.ExportLogger("csv", buf.Len(), time.Since(start))

	c.Header("Content-Disposition", `attachment; filename="bars_scored.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *server) handleTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="bars_template.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", dataset.TemplateCSV())
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"metrics":   s.metrics.GetStats(),
	})
}

func (s *server) handleMetrics(c *gin.Context) {
	stats := s.metrics.GetStats()
	stats["rate_limited_clients"] = s.limiter.Size()
	c.JSON(http.StatusOK, stats)
}

func (s *server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.cache.Stats())
}

func treatmentCount(records []dataset.Record) int {
	seen := make(map[string]bool)
	for _, r := range records {
		seen[r.Treatment] = true
	}
	return len(seen)
}
