// Package beneficiary builds the slowly-changing-dimension (type 2) history
// of each beneficiary from repeated bronze snapshots. One version is derived
// per snapshot; per beneficiary the versions carry non-overlapping effective
// intervals and exactly one version, the latest by load order, is current.
package beneficiary

import (
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CMSgov/desynpuf-etl/silver/models"
	"github.com/CMSgov/desynpuf-etl/silver/schema"
	"github.com/CMSgov/desynpuf-etl/silver/source"
)

// HistoryBuilder derives BeneficiaryVersion rows from a snapshot batch. Now
// anchors age derivation so tests stay stable.
type HistoryBuilder struct {
	Logger logrus.FieldLogger
	Now    time.Time
}

func (b HistoryBuilder) Build(batch *source.BeneficiaryBatch) []models.BeneficiaryVersion {
	groups := make(map[string][]models.BeneficiarySnapshot)
	var ids []string
	for _, snap := range batch.Rows {
		if _, seen := groups[snap.DesynpufID]; !seen {
			ids = append(ids, snap.DesynpufID)
		}
		groups[snap.DesynpufID] = append(groups[snap.DesynpufID], snap)
	}
	sort.Strings(ids)

	versions := make([]models.BeneficiaryVersion, 0, len(batch.Rows))
	for _, id := range ids {
		versions = append(versions, b.buildGroup(groups[id])...)
	}

	b.Logger.Infof("Built %d beneficiary versions from %d snapshots", len(versions), len(batch.Rows))
	return versions
}

// buildGroup orders one beneficiary's snapshots by load timestamp, ingestion
// sequence breaking ties, and assigns each version's effective interval from
// its own load date to the next snapshot's load date. The last version stays
// open against the sentinel date and is the current one.
func (b HistoryBuilder) buildGroup(snaps []models.BeneficiarySnapshot) []models.BeneficiaryVersion {
	ordered := make([]models.BeneficiarySnapshot, len(snaps))
	copy(ordered, snaps)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].LoadTimestamp.Equal(ordered[j].LoadTimestamp) {
			return ordered[i].LoadTimestamp.Before(ordered[j].LoadTimestamp)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	versions := make([]models.BeneficiaryVersion, 0, len(ordered))
	for i, snap := range ordered {
		v := b.derive(snap)
		v.EffectiveStartDate = snap.LoadDate
		if i < len(ordered)-1 {
			v.EffectiveEndDate = ordered[i+1].LoadDate
			v.IsCurrent = false
		} else {
			v.EffectiveEndDate = models.SentinelEndDate()
			v.IsCurrent = true
		}
		versions = append(versions, v)
	}
	return versions
}

func (b HistoryBuilder) derive(snap models.BeneficiarySnapshot) models.BeneficiaryVersion {
	birth := models.ParseDateCode(snap.BirthDtCd)
	death := models.ParseDateCode(snap.DeathDtCd)

	v := models.BeneficiaryVersion{
		DesynpufID:            snap.DesynpufID,
		BirthDate:             birth,
		DeathDate:             death,
		SexIdentCd:            snap.SexIdentCd,
		RaceCd:                snap.RaceCd,
		IsDeceased:            death != nil,
		Gender:                mapGender(snap.SexIdentCd),
		Race:                  mapRace(snap.RaceCd),
		ChronicConditionCount: countChronicConditions(snap.ChronicFlags),
		LoadTimestamp:         snap.LoadTimestamp,
	}
	if birth != nil {
		v.Age = age(*birth, b.Now)
	}
	return v
}

func age(birth, now time.Time) int32 {
	days := now.Sub(birth).Hours() / 24
	return int32(math.Floor(days / 365.25))
}

func mapGender(sexCd string) string {
	switch sexCd {
	case "1":
		return "Male"
	case "2":
		return "Female"
	default:
		return "Unknown"
	}
}

func mapRace(raceCd string) string {
	switch raceCd {
	case "1":
		return "White"
	case "2":
		return "Black"
	case "3":
		return "Other"
	case "5":
		return "Hispanic"
	default:
		return "Unknown"
	}
}

func countChronicConditions(flags map[string]string) int32 {
	var count int32
	for _, col := range schema.ChronicConditionColumns {
		if flags[col] == schema.ChronicPresentMarker {
			count++
		}
	}
	return count
}
