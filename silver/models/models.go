package models

import (
	"strings"
	"time"

	"github.com/CMSgov/desynpuf-etl/silver/constants"
)

// Raw bronze records. Codes stay as strings until the owning transform parses
// them; provenance columns are parsed at load time because the bronze
// ingestion step wrote them and a failure there is a bad file, not a bad row.

// BeneficiarySnapshot is one beneficiary row from one bronze extract load.
// The same beneficiary appears once per load, distinguished by LoadTimestamp.
type BeneficiarySnapshot struct {
	DesynpufID  string
	BirthDtCd   string
	DeathDtCd   string
	SexIdentCd  string
	RaceCd      string
	// Chronic condition indicator values keyed by source column name. Only
	// columns present in the batch schema have entries.
	ChronicFlags map[string]string

	LoadTimestamp time.Time
	LoadDate      time.Time
	// Seq is the 0-based ingestion sequence assigned by the loader in file
	// order. It breaks ties between snapshots sharing a LoadTimestamp.
	Seq int
}

// ClaimRecord is one raw claim row (inpatient, outpatient, or carrier).
type ClaimRecord struct {
	DesynpufID string
	ClaimID    string
	FromDtCd   string
	ThruDtCd   string
	PaymentRaw string
	// Diagnosis slot values aligned with the batch's resolved slot list.
	// Empty for claim types without diagnosis slots.
	DiagnosisCodes []string

	LoadTimestamp time.Time
	LoadDate      time.Time
	Seq           int
}

// PrescriptionRecord is one raw Part D event row.
type PrescriptionRecord struct {
	DesynpufID      string
	EventID         string
	ServiceDtCd     string
	QtyDispensedRaw string
	DaysSupplyRaw   string
	TotalCostRaw    string
	PatientPayRaw   string

	LoadTimestamp time.Time
	LoadDate      time.Time
	Seq           int
}

// Silver rows. Field tags drive the parquet schema written by the sink.

// BeneficiaryVersion is one SCD2 version of a beneficiary, derived from one
// snapshot. Versions for an id never overlap and exactly one is current.
type BeneficiaryVersion struct {
	DesynpufID            string     `parquet:"desynpuf_id,dict"`
	BirthDate             *time.Time `parquet:"bene_birth_dt,optional"`
	DeathDate             *time.Time `parquet:"bene_death_dt,optional"`
	SexIdentCd            string     `parquet:"bene_sex_ident_cd,dict"`
	RaceCd                string     `parquet:"bene_race_cd,dict"`
	Age                   int32      `parquet:"age"`
	IsDeceased            bool       `parquet:"is_deceased"`
	Gender                string     `parquet:"gender,dict"`
	Race                  string     `parquet:"race,dict"`
	ChronicConditionCount int32      `parquet:"chronic_condition_count"`
	LoadTimestamp         time.Time  `parquet:"bronze_load_timestamp"`
	EffectiveStartDate    time.Time  `parquet:"effective_start_date"`
	EffectiveEndDate      time.Time  `parquet:"effective_end_date"`
	IsCurrent             bool       `parquet:"is_current"`
}

// CleansedClaim is a per-type standardized claim. DiagnosisCodes ride along
// for the unpivoter and are not part of the unified projection.
type CleansedClaim struct {
	DesynpufID     string
	ClaimID        string
	FromDate       *time.Time
	ThruDate       *time.Time
	ClaimType      string
	DurationDays   int32
	Year           int32
	Month          int32
	Quarter        int32
	PaymentAmount  float64
	DiagnosisCodes []string
	LoadTimestamp  time.Time
}

// UnifiedClaim is the projection of a CleansedClaim onto the common column
// set shared by all claim types.
type UnifiedClaim struct {
	DesynpufID    string     `parquet:"desynpuf_id,dict"`
	ClaimID       string     `parquet:"clm_id"`
	FromDate      *time.Time `parquet:"clm_from_dt,optional"`
	ThruDate      *time.Time `parquet:"clm_thru_dt,optional"`
	ClaimType     string     `parquet:"claim_type,dict"`
	DurationDays  int32      `parquet:"claim_duration_days"`
	Year          int32      `parquet:"claim_year"`
	Month         int32      `parquet:"claim_month"`
	PaymentAmount float64    `parquet:"payment_amount"`
	LoadTimestamp time.Time  `parquet:"bronze_load_timestamp"`
	IsHighCost    bool       `parquet:"is_high_cost"`
}

// PrescriptionEvent is a cleaned Part D event with derived cost metrics.
type PrescriptionEvent struct {
	DesynpufID    string     `parquet:"desynpuf_id,dict"`
	EventID       string     `parquet:"pde_id"`
	ServiceDate   *time.Time `parquet:"srvc_dt,optional"`
	Year          int32      `parquet:"prescription_year"`
	Month         int32      `parquet:"prescription_month"`
	QtyDispensed  int32      `parquet:"qty_dispensed"`
	DaysSupply    int32      `parquet:"days_supply"`
	TotalCost     float64    `parquet:"total_cost"`
	PatientPay    float64    `parquet:"patient_pay"`
	CostPerDay    float64    `parquet:"cost_per_day"`
	LoadTimestamp time.Time  `parquet:"bronze_load_timestamp"`
}

// DiagnosisAssignment is one non-empty diagnosis slot value from one
// inpatient claim. Sequence is the 1-based slot position in the order the
// slot columns were discovered in the source schema.
type DiagnosisAssignment struct {
	DesynpufID    string     `parquet:"desynpuf_id,dict"`
	ClaimID       string     `parquet:"clm_id"`
	FromDate      *time.Time `parquet:"clm_from_dt,optional"`
	DiagnosisCode string     `parquet:"diagnosis_code"`
	Sequence      int32      `parquet:"diagnosis_sequence"`
}

// SentinelEndDate returns the far-future date closing the current version's
// open interval.
func SentinelEndDate() time.Time {
	t, _ := time.Parse("2006-01-02", constants.SentinelEndDate)
	return t
}

// ParseDateCode parses an 8-digit yyyyMMdd date code. A missing or
// unparsable code yields nil, never an error; rows with bad dates are
// retained with null derived fields.
func ParseDateCode(code string) *time.Time {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	t, err := time.Parse(constants.DateCodeLayout, code)
	if err != nil {
		return nil
	}
	return &t
}
