// Package diagnosis unpivots the positional inpatient diagnosis columns into
// normalized per-code assignment rows.
package diagnosis

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/CMSgov/desynpuf-etl/silver/claims"
	"github.com/CMSgov/desynpuf-etl/silver/models"
)

// Unpivot emits one DiagnosisAssignment per non-empty diagnosis slot per
// inpatient claim. Sequence is the slot's 1-based position in schema
// discovery order, never a sort of the codes. Output is slot-major: all
// sequence-1 assignments, then all sequence-2, matching the partition layout.
// No slots in the source schema means an empty result, not an error.
func Unpivot(logger logrus.FieldLogger, inpatient *claims.CleansedBatch) []models.DiagnosisAssignment {
	if len(inpatient.Slots) == 0 {
		logger.Warn("No diagnosis columns found in inpatient data")
		return nil
	}

	var assignments []models.DiagnosisAssignment
	for k := range inpatient.Slots {
		for _, claim := range inpatient.Claims {
			if k >= len(claim.DiagnosisCodes) {
				continue
			}
			code := strings.TrimSpace(claim.DiagnosisCodes[k])
			if code == "" {
				continue
			}
			assignments = append(assignments, models.DiagnosisAssignment{
				DesynpufID:    claim.DesynpufID,
				ClaimID:       claim.ClaimID,
				FromDate:      claim.FromDate,
				DiagnosisCode: code,
				Sequence:      int32(k + 1),
			})
		}
	}

	logger.Infof("Normalized %d diagnosis assignments across %d slots", len(assignments), len(inpatient.Slots))
	return assignments
}
