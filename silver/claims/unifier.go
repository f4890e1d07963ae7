package claims

import (
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/desynpuf-etl/silver/constants"
	"github.com/CMSgov/desynpuf-etl/silver/models"
)

// Unify projects each available cleansed claim set onto the common column set
// and concatenates them in type order. Nil batches are skipped; no
// deduplication or cross-type join happens. When every batch is nil the
// result is empty and a warning is logged, not an error.
func Unify(logger logrus.FieldLogger, batches ...*CleansedBatch) []models.UnifiedClaim {
	unified := []models.UnifiedClaim{}

	available := 0
	for _, batch := range batches {
		if batch == nil {
			continue
		}
		available++
		for _, claim := range batch.Claims {
			unified = append(unified, project(claim))
		}
		logger.Infof("Added %s: %d records", batch.ClaimType, len(batch.Claims))
	}

	if available == 0 {
		logger.Warn("No claims data available to unify")
	}

	return unified
}

func project(claim models.CleansedClaim) models.UnifiedClaim {
	return models.UnifiedClaim{
		DesynpufID:    claim.DesynpufID,
		ClaimID:       claim.ClaimID,
		FromDate:      claim.FromDate,
		ThruDate:      claim.ThruDate,
		ClaimType:     claim.ClaimType,
		DurationDays:  claim.DurationDays,
		Year:          claim.Year,
		Month:         claim.Month,
		PaymentAmount: claim.PaymentAmount,
		LoadTimestamp: claim.LoadTimestamp,
		IsHighCost:    claim.PaymentAmount > constants.HighCostThreshold,
	}
}
