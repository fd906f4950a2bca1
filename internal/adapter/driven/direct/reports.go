package direct

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ericfisherdev/directvault/internal/domain/model"
)

// ErrReportTimeout indicates the remote side never finished building the
// report within the retry budget. Distinct from *APIError: the API returned
// no error, just no completion in time.
var ErrReportTimeout = errors.New("report not ready within retry budget")

// errReportPending marks a 201/202 attempt so backoff retries it.
var errReportPending = errors.New("report pending")

// defaultStatsFields are the report columns requested when the query names none.
var defaultStatsFields = []string{
	"Impressions", "Clicks", "Ctr", "AvgCpc", "Cost", "Conversions",
}

// GetStats runs the asynchronous Reports API protocol for a campaign
// performance report.
//
// The remote side deduplicates report jobs by the submitted specification,
// not by a job handle, so every poll resubmits the byte-identical request:
// 200 means the report body is ready (TSV), 201/202 mean it is still being
// built, anything else is a terminal API error. The wait between polls
// honors the server's retryIn hint when present, else the configured
// interval, and the number of re-polls is bounded.
func (c *Client) GetStats(ctx context.Context, q model.StatsQuery) ([]model.ReportRow, error) {
	fields := q.Fields
	if len(fields) == 0 {
		fields = defaultStatsFields
	}
	reportType := q.ReportType
	if reportType == "" {
		reportType = "CAMPAIGN_PERFORMANCE_REPORT"
	}

	payload, err := json.Marshal(map[string]any{
		"params": map[string]any{
			"SelectionCriteria": map[string]any{
				"DateFrom": q.DateFrom,
				"DateTo":   q.DateTo,
				"Filter": []map[string]any{{
					"Field":    "CampaignId",
					"Operator": "EQUALS",
					"Values":   []string{strconv.FormatInt(q.CampaignID, 10)},
				}},
			},
			"FieldNames":      fields,
			"ReportName":      fmt.Sprintf("stats_%d_%s_%s", q.CampaignID, q.DateFrom, q.DateTo),
			"ReportType":      reportType,
			"DateRangeType":   "CUSTOM_DATE",
			"Format":          "TSV",
			"IncludeVAT":      "YES",
			"IncludeDiscount": "NO",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal report request: %w", err)
	}

	wait := &reportBackoff{interval: c.reportInterval}
	policy := backoff.WithContext(backoff.WithMaxRetries(wait, uint64(c.reportRetries)), ctx)

	var rows []model.ReportRow
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		var err error
		rows, err = c.fetchReport(ctx, payload, wait, attempt)
		return err
	}, policy)

	switch {
	case err == nil:
		return rows, nil
	case errors.Is(err, errReportPending):
		return nil, ErrReportTimeout
	default:
		return nil, err
	}
}

// fetchReport performs one submit-or-poll round trip.
func (c *Client) fetchReport(ctx context.Context, payload []byte, wait *reportBackoff, attempt int) ([]model.ReportRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reports", bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build report request: %w", err))
	}
	c.setHeaders(req)
	req.Header.Set("processingMode", "auto")
	req.Header.Set("returnMoneyInMicros", "false")
	req.Header.Set("skipReportHeader", "true")
	req.Header.Set("skipReportSummary", "true")

	resp, err := c.reportClient.Do(req)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("reports: %w", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("read report body: %w", err))
		}
		return parseTSVReport(string(body)), nil

	case http.StatusCreated, http.StatusAccepted:
		wait.hint = retryInHint(resp.Header)
		slog.Debug("report pending", "attempt", attempt, "status", resp.StatusCode, "retry_in", wait.hint)
		return nil, errReportPending

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, backoff.Permanent(&APIError{
			Code:    resp.StatusCode,
			Message: "reports api error",
			Details: string(body),
		})
	}
}

// retryInHint reads the server's retryIn header (seconds until the report is
// expected to be ready). Zero means no hint.
func retryInHint(h http.Header) time.Duration {
	v := h.Get("retryIn")
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// parseTSVReport zips a TSV body into row maps: first line is the column
// header, each further line one data row. A report with no data rows yields
// an empty slice.
func parseTSVReport(body string) []model.ReportRow {
	body = strings.Trim(body, "\n")
	if body == "" {
		return []model.ReportRow{}
	}

	lines := strings.Split(body, "\n")
	if len(lines) < 2 {
		return []model.ReportRow{}
	}

	header := strings.Split(lines[0], "\t")
	rows := make([]model.ReportRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(line, "\t")
		row := make(model.ReportRow, len(header))
		for i, col := range header {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// reportBackoff waits the server-hinted delay when one was given, otherwise
// the fixed configured interval. The hint applies to exactly one wait.
type reportBackoff struct {
	interval time.Duration
	hint     time.Duration
}

func (b *reportBackoff) NextBackOff() time.Duration {
	if b.hint > 0 {
		d := b.hint
		b.hint = 0
		return d
	}
	return b.interval
}

func (b *reportBackoff) Reset() {
	b.hint = 0
}
