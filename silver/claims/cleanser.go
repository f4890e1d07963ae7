// Package claims standardizes the three claim record shapes and merges them
// into the unified analytical claims set.
package claims

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/CMSgov/desynpuf-etl/silver/models"
	"github.com/CMSgov/desynpuf-etl/silver/source"
)

// A CleansedBatch is the standardized output for one claim type. Slots
// preserves the inpatient diagnosis slot order for the unpivoter.
type CleansedBatch struct {
	ClaimType string
	Slots     []string
	Claims    []models.CleansedClaim
}

type Cleanser struct {
	Logger logrus.FieldLogger
}

// Cleanse standardizes one claim type. Duration is inclusive of both
// endpoints, so a same-day claim has duration 1 and an inverted date pair
// goes to zero or negative untouched. Year, month, and quarter come from the
// from-date. Payment defaults to 0.0 when the source lacks the column.
func (c Cleanser) Cleanse(batch *source.ClaimBatch) *CleansedBatch {
	out := &CleansedBatch{
		ClaimType: batch.ClaimType,
		Slots:     batch.Presence.Slots,
		Claims:    make([]models.CleansedClaim, 0, len(batch.Rows)),
	}

	hasPayment := batch.Presence.Has("clm_pmt_amt")
	parseFailures := 0

	for _, rec := range batch.Rows {
		claim := models.CleansedClaim{
			DesynpufID:     rec.DesynpufID,
			ClaimID:        rec.ClaimID,
			FromDate:       models.ParseDateCode(rec.FromDtCd),
			ThruDate:       models.ParseDateCode(rec.ThruDtCd),
			ClaimType:      batch.ClaimType,
			DiagnosisCodes: rec.DiagnosisCodes,
			LoadTimestamp:  rec.LoadTimestamp,
		}

		if claim.FromDate == nil || claim.ThruDate == nil {
			parseFailures++
		} else {
			days := int32(claim.ThruDate.Sub(*claim.FromDate).Hours() / 24)
			claim.DurationDays = days + 1
		}
		if claim.FromDate != nil {
			claim.Year = int32(claim.FromDate.Year())
			claim.Month = int32(claim.FromDate.Month())
			claim.Quarter = (claim.Month-1)/3 + 1
		}

		if hasPayment {
			claim.PaymentAmount = parseAmount(rec.PaymentRaw)
		}

		out.Claims = append(out.Claims, claim)
	}

	if parseFailures > 0 {
		c.Logger.Warnf("%s: %d claims retained with unparsable dates", batch.ClaimType, parseFailures)
	}
	c.Logger.Infof("Cleansed %d %s claims", len(out.Claims), batch.ClaimType)
	return out
}

// parseAmount casts a payment value to a float, 0.0 when empty or garbage.
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
