// Package writer contains the ReadingWriter interface and the sinks readings are forwarded to.
package writer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lhs-project/libre-health-sync/internal/llu"
	"github.com/lhs-project/libre-health-sync/internal/timestamp"
)

//go:generate mockgen -destination=mocks/mock_reading_writer.go -package=mocks -source=writer.go ReadingWriter

// ReadingWriter persists forwarded readings for an account.
// Write returns how many readings were newly stored; readings already present are not counted.
type ReadingWriter interface {
	Write(ctx context.Context, account string, readings []llu.Reading) (int, error)
}

// readingNamespace seeds the deterministic reading ids
var readingNamespace = uuid.MustParse("6f1c7a52-8d0e-4b7a-9a51-3c2e4f0d9b17")

// Record is the stored form of a reading
type Record struct {
	ID               uuid.UUID `json:"id"`
	Account          string    `json:"account"`
	FactoryTimestamp string    `json:"factoryTimestamp"`
	MeasuredAt       time.Time `json:"measuredAt"`
	ValueMgPerDl     float64   `json:"valueMgPerDl"`
	Trend            llu.Trend `json:"trend"`
	ExternalID       string    `json:"externalId"`
}

// ReadingID is the id a reading is stored under. The same account and
// timestamp always produce the same id.
func ReadingID(account, factoryTimestamp string) uuid.UUID {
	return uuid.NewSHA1(readingNamespace, []byte(account+"\x00"+factoryTimestamp))
}

// toRecords converts readings to records, dropping readings with no value or
// no parseable timestamp and repeated timestamps within the batch.
func toRecords(account string, readings []llu.Reading) []Record {
	records := make([]Record, 0, len(readings))
	seen := make(map[string]struct{}, len(readings))
	for _, r := range readings {
		value, ok := r.MgPerDl()
		if !ok {
			slog.Debug("Skipping reading without value", "timestamp", r.FactoryTimestamp)
			continue
		}
		measuredAt, err := r.ParsedTime()
		if err != nil {
			slog.Debug("Skipping reading with unparseable timestamp", "timestamp", r.FactoryTimestamp)
			continue
		}
		// Keyed on the canonical form so 12h and 24h spellings of one instant collide.
		canonical := r
		canonical.FactoryTimestamp = timestamp.Format(measuredAt)
		if _, dup := seen[canonical.FactoryTimestamp]; dup {
			continue
		}
		seen[canonical.FactoryTimestamp] = struct{}{}

		records = append(records, Record{
			ID:               ReadingID(account, canonical.FactoryTimestamp),
			Account:          account,
			FactoryTimestamp: canonical.FactoryTimestamp,
			MeasuredAt:       measuredAt,
			ValueMgPerDl:     value,
			Trend:            r.Trend(),
			ExternalID:       canonical.ExternalID(),
		})
	}
	return records
}
