package bankhub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/automation-hub/hub/internal/settings"
	log "github.com/sirupsen/logrus"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxExportBytes        = 64 << 20
)

// Syncer periodically pulls the bank-hub export and applies it.
type Syncer struct {
	importer BatchImporter
	url      string
	interval time.Duration
	client   *http.Client
}

// NewSyncer constructs an export syncer. It returns nil when url is empty.
func NewSyncer(imp BatchImporter, url string, interval time.Duration) *Syncer {
	url = strings.TrimSpace(url)
	if imp == nil || url == "" {
		return nil
	}
	if interval <= 0 {
		interval = settings.DefaultSyncInterval
	}
	return &Syncer{
		importer: imp,
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: defaultRequestTimeout},
	}
}

// Start runs the sync loop in the background until ctx is done.
func (s *Syncer) Start(ctx context.Context) {
	if s == nil {
		return
	}
	go s.run(ctx)
	log.Infof("bank-hub syncer started (url=%s interval=%s)", s.url, s.interval)
}

func (s *Syncer) run(ctx context.Context) {
	if _, err := s.SyncOnce(ctx); err != nil {
		log.WithError(err).Warn("bank-hub syncer: initial sync failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SyncOnce(ctx); err != nil {
				log.WithError(err).Warn("bank-hub syncer: sync failed")
			}
		}
	}
}

// SyncOnce fetches the export and applies it.
func (s *Syncer) SyncOnce(ctx context.Context) (Report, error) {
	if s == nil || s.importer == nil {
		return Report{}, fmt.Errorf("bank-hub syncer: not initialized")
	}
	client := s.client
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}

	requestCtx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, s.url, nil)
	if err != nil {
		return Report{}, fmt.Errorf("bank-hub syncer: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("bank-hub syncer: request failed: %w", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("bank-hub syncer: close response body failed")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Report{}, fmt.Errorf("bank-hub syncer: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes))
	if err != nil {
		return Report{}, fmt.Errorf("bank-hub syncer: read response: %w", err)
	}

	export, err := ParseExport(body)
	if err != nil {
		return Report{}, err
	}
	if export.Empty() {
		return Report{}, nil
	}
	return Apply(ctx, s.importer, export)
}
