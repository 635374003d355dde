package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/vip-insights-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Handler directory — SNR account to handler name
// ============================================================

// HandlerDirectory implements port.HandlerDirectory against the
// handler_directory table. Lookups are cached, including the negative
// case: an account with no configured handler resolves to "" and is a
// valid answer, never an error.
type HandlerDirectory struct {
	client  *Client
	cache   port.Cache[string]
	metrics *observability.Metrics
}

// NewHandlerDirectory creates a cached handler directory.
func NewHandlerDirectory(client *Client, cache port.Cache[string], metrics *observability.Metrics) *HandlerDirectory {
	return &HandlerDirectory{client: client, cache: cache, metrics: metrics}
}

// directoryRow maps the handler_directory table columns.
type directoryRow struct {
	SNRAccount  string `json:"snr_account"`
	HandlerName string `json:"handler_name"`
}

// Lookup resolves an SNR account to its handler name.
func (d *HandlerDirectory) Lookup(ctx context.Context, snrAccount string) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LookupHandler")
	defer span.End()
	span.SetAttributes(attribute.String("directory.snr_account", snrAccount))

	if snrAccount == "" {
		return "", nil
	}

	if name, ok := d.cache.Get(snrAccount); ok {
		d.metrics.IncrCacheHit("handler_directory")
		return name, nil
	}
	d.metrics.IncrCacheMiss("handler_directory")

	var name string

	err := d.client.execute(ctx, func() error {
		path := fmt.Sprintf("handler_directory?snr_account=eq.%s&limit=1", url.QueryEscape(snrAccount))
		body, err := d.client.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		if len(body) == 0 || string(body) == "[]" {
			name = "" // unconfigured account, not an error
			return nil
		}

		var rows []directoryRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode directory row: %w", err)
		}
		if len(rows) > 0 {
			name = rows[0].HandlerName
		}
		return nil
	})
	if err != nil {
		return "", &domain.ErrRepository{Operation: "directory.lookup", Err: err}
	}

	d.cache.Set(snrAccount, name)
	return name, nil
}
