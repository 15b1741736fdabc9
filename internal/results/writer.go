// Package results writes a finished SiteRecord into its spreadsheet row.
package results

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/metrics"
)

const separator = ", "

// Writer persists site records through a TabularStore.
type Writer struct {
	store  crawler.TabularStore
	logger *zap.Logger
}

// NewWriter wires a Writer.
func NewWriter(store crawler.TabularStore, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{store: store, logger: logger}
}

// Write updates columns A-D of rec.Row. Each cell is written independently;
// a failed cell is logged and left unchanged, and all failures are returned joined.
func (w *Writer) Write(ctx context.Context, rec crawler.SiteRecord) error {
	if rec.Row <= crawler.HeaderRow {
		return fmt.Errorf("refusing to write row %d: header row or invalid index", rec.Row)
	}
	log := w.logger.With(zap.Int("row", rec.Row), zap.String("site", rec.URL))

	var errs []error
	write := func(col int, value string) {
		if err := w.store.UpdateCell(ctx, rec.Row, col, value); err != nil {
			metrics.ObserveStoreWrite(col, "error")
			log.Warn("cell write failed", zap.Int("column", col), zap.Error(err))
			errs = append(errs, fmt.Errorf("column %d: %w", col, err))
			return
		}
		metrics.ObserveStoreWrite(col, "ok")
	}

	if rec.URL != "" && rec.URL != strings.TrimSpace(rec.RawURL) {
		write(crawler.ColumnSite, rec.URL)
	}
	write(crawler.ColumnURLs, FormatURLs(rec.JobPageURLs))

	existing, err := w.store.Cell(ctx, rec.Row, crawler.ColumnEmails)
	if err != nil {
		// Without the current value a write could drop curated addresses.
		log.Warn("email cell read failed, leaving it unchanged", zap.Error(err))
		errs = append(errs, fmt.Errorf("column %d: %w", crawler.ColumnEmails, err))
	} else {
		write(crawler.ColumnEmails, FormatEmails(MergeEmails(existing, rec.Emails)))
	}

	write(crawler.ColumnTitles, FormatTitles(rec))
	return errors.Join(errs...)
}

// FormatURLs renders column B.
func FormatURLs(urls []string) string {
	if len(urls) == 0 {
		return crawler.NoURLSentinel
	}
	return strings.Join(sortedUnique(urls), separator)
}

// FormatEmails renders column C.
func FormatEmails(emails []string) string {
	if len(emails) == 0 {
		return crawler.NoEmailSentinel
	}
	return strings.Join(sortedUnique(emails), separator)
}

// FormatTitles renders column D. When every scanned job page failed the
// parse-error marker is written instead of the empty-result marker.
func FormatTitles(rec crawler.SiteRecord) string {
	if len(rec.JobTitles) > 0 {
		return strings.Join(sortedUnique(rec.JobTitles), separator)
	}
	if rec.PagesScanned > 0 && rec.PagesFailed == rec.PagesScanned {
		return crawler.ParseErrorSentinel
	}
	return crawler.NoPositionsSentinel
}

// MergeEmails unions the addresses already in a cell with newly found ones.
func MergeEmails(existing string, found []string) []string {
	merged := make([]string, 0, len(found)+4)
	for _, part := range strings.Split(existing, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == crawler.NoEmailSentinel {
			continue
		}
		merged = append(merged, part)
	}
	merged = append(merged, found...)
	return sortedUnique(merged)
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
