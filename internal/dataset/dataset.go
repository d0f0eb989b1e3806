// internal/dataset/dataset.go
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/common/metrics"
	"signal-explorer/internal/common/validation"
	"signal-explorer/internal/models"
	"signal-explorer/internal/store"
)

const DefaultBatchSize = 500

// maxReported caps the invalid documents listed in one error.
const maxReported = 20

var ErrNotWritable = errors.New("STORE_NOT_WRITABLE")

// Load reads a JSON array of records from path, validating every document
// before decoding. All invalid documents are reported together.
func Load(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes a JSON array of records.
func Parse(data []byte) ([]models.Record, error) {
	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, apperrors.NewDatasetInvalidError(fmt.Sprintf("expected a JSON array of records: %v", err))
	}

	validator, err := validation.NewRecordValidator()
	if err != nil {
		return nil, err
	}

	var problems []string
	invalid := 0
	for i, doc := range docs {
		res, err := validator.ValidateBytes(doc)
		if err != nil {
			return nil, apperrors.NewDatasetInvalidError(fmt.Sprintf("record %d: %v", i, err))
		}
		if res.Valid {
			continue
		}
		invalid++
		if len(problems) < maxReported {
			problems = append(problems, fmt.Sprintf("record %d: %s", i, strings.Join(res.GetErrorMessages(), "; ")))
		}
	}
	if invalid > 0 {
		return nil, apperrors.NewDatasetInvalidError(fmt.Sprintf("%d of %d records invalid: %s",
			invalid, len(docs), strings.Join(problems, " | "))).
			WithMetadata("invalidCount", invalid)
	}

	records := make([]models.Record, 0, len(docs))
	for i, doc := range docs {
		var r models.Record
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, apperrors.NewDatasetInvalidError(fmt.Sprintf("record %d: %v", i, err))
		}
		records = append(records, r)
	}
	return records, nil
}

// Import writes records to s in batches through one session.
func Import(ctx context.Context, s store.Store, records []models.Record, batch int, log logger.Logger) (int, error) {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	log = log.WithFields(map[string]interface{}{"component": "dataset-import", "driver": s.Driver()})

	written := 0
	err := store.WithSession(ctx, s, "insert", log, func(ctx context.Context, sess store.Session) error {
		w, ok := sess.(store.Writer)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotWritable, s.Driver())
		}
		for start := 0; start < len(records); start += batch {
			end := start + batch
			if end > len(records) {
				end = len(records)
			}
			n, err := w.Insert(ctx, records[start:end])
			written += n
			metrics.RecordsImported.WithLabelValues(s.Driver()).Add(float64(n))
			if err != nil {
				return err
			}
			log.Debug("batch imported", map[string]interface{}{"from": start, "to": end, "written": written})
		}
		return nil
	})
	if err != nil {
		return written, err
	}

	log.Info("dataset imported", map[string]interface{}{"records": written})
	return written, nil
}
