// Package prescription cleans Part D prescription events and derives their
// cost metrics.
package prescription

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/CMSgov/desynpuf-etl/silver/models"
	"github.com/CMSgov/desynpuf-etl/silver/source"
)

type Normalizer struct {
	Logger logrus.FieldLogger
}

// Normalize parses service dates, casts the dispense and cost columns, and
// derives cost_per_day. The ratio is only meaningful with a positive days
// supply and a positive total cost; anything else yields 0.0 rather than a
// division error.
func (n Normalizer) Normalize(batch *source.PrescriptionBatch) []models.PrescriptionEvent {
	hasPatientPay := batch.Presence.Has("ptnt_pay_amt")

	events := make([]models.PrescriptionEvent, 0, len(batch.Rows))
	for _, rec := range batch.Rows {
		event := models.PrescriptionEvent{
			DesynpufID:    rec.DesynpufID,
			EventID:       rec.EventID,
			ServiceDate:   models.ParseDateCode(rec.ServiceDtCd),
			QtyDispensed:  parseCount(rec.QtyDispensedRaw),
			DaysSupply:    parseCount(rec.DaysSupplyRaw),
			TotalCost:     parseAmount(rec.TotalCostRaw),
			LoadTimestamp: rec.LoadTimestamp,
		}
		if event.ServiceDate != nil {
			event.Year = int32(event.ServiceDate.Year())
			event.Month = int32(event.ServiceDate.Month())
		}
		if hasPatientPay {
			event.PatientPay = parseAmount(rec.PatientPayRaw)
		}
		if event.DaysSupply > 0 && event.TotalCost > 0 {
			event.CostPerDay = event.TotalCost / float64(event.DaysSupply)
		}
		events = append(events, event)
	}

	n.Logger.Infof("Normalized %d prescription events", len(events))
	return events
}

func parseCount(raw string) int32 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	// Bronze numeric columns sometimes arrive as "30.0"
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int32(f)
}

func parseAmount(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0.0
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0.0
	}
	return amount
}
