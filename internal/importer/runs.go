package importer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/automation-hub/hub/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// failure is the JSON shape of one ImportRun.Failures entry.
type failure struct {
	ExternalID string `json:"external_id"`
	Reason     Reason `json:"reason"`
	Message    string `json:"message"`
}

// recordRun persists a batch summary. Failures to record are logged only.
func (im *Importer) recordRun(ctx context.Context, entityType models.EntityType, started time.Time, out BatchResult) {
	fields := log.Fields{
		"module":      im.Module(),
		"entity_type": entityType,
		"source":      im.source,
		"total":       out.Total,
		"successful":  out.Successful,
		"failed":      out.Failed,
	}
	log.WithFields(fields).Info("import batch finished")

	if im.stats == nil {
		return
	}
	failures := make([]failure, 0, out.Failed)
	for _, result := range out.Results {
		if result.Success {
			continue
		}
		failures = append(failures, failure{ExternalID: result.ExternalID, Reason: result.Reason, Message: result.Message})
	}
	payload, errMarshal := json.Marshal(failures)
	if errMarshal != nil {
		log.WithError(errMarshal).Warn("importer: marshal run failures")
		payload = []byte("[]")
	}
	run := &models.ImportRun{
		Module:     im.Module(),
		EntityType: entityType,
		Source:     im.source,
		Total:      out.Total,
		Successful: out.Successful,
		Failed:     out.Failed,
		Failures:   datatypes.JSON(payload),
		StartedAt:  started,
		FinishedAt: im.now(),
	}
	if errRecord := im.stats.RecordRun(ctx, run); errRecord != nil {
		log.WithError(errRecord).WithFields(fields).Warn("importer: record import run")
	}
}
