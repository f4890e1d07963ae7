package schema

import (
	"fmt"

	"github.com/CMSgov/desynpuf-etl/silver/constants"
	"github.com/CMSgov/desynpuf-etl/silver/ers"
)

// A SourceSchema enumerates the columns a bronze source may carry. Required
// columns must be present or the load fails; optional columns are recorded as
// present or absent once at load time so transforms never re-inspect the
// schema per row.
type SourceSchema struct {
	Source   string
	Required []string
	Optional []string
	// DiagnosisSlots is the bounded set of positional diagnosis columns this
	// source may carry. Only inpatient declares any.
	DiagnosisSlots []string
}

// Presence is the resolved view of one batch's columns against its schema.
type Presence struct {
	columns map[string]struct{}
	// Slots holds the diagnosis slot columns actually present, in the order
	// they appear in the batch schema. Slot position in this list (1-based)
	// is the diagnosis sequence.
	Slots []string
}

// Has reports whether the named column was present in the batch.
func (p Presence) Has(column string) bool {
	_, ok := p.columns[column]
	return ok
}

// Resolve checks the batch's column list against the schema. Missing required
// columns are an error; missing optional columns are not. Column order is
// preserved when collecting diagnosis slots.
func (s SourceSchema) Resolve(columns []string) (Presence, error) {
	p := Presence{columns: make(map[string]struct{}, len(columns))}
	for _, c := range columns {
		p.columns[c] = struct{}{}
	}

	for _, required := range s.Required {
		if !p.Has(required) {
			return Presence{}, &ers.MissingRequiredColumnError{Source: s.Source, Column: required}
		}
	}

	declared := make(map[string]struct{}, len(s.DiagnosisSlots))
	for _, slot := range s.DiagnosisSlots {
		declared[slot] = struct{}{}
	}
	for _, c := range columns {
		if _, ok := declared[c]; ok {
			p.Slots = append(p.Slots, c)
		}
	}

	return p, nil
}

// Provenance columns the bronze ingestion step stamps on every source.
const (
	ColLoadTimestamp = "bronze_load_timestamp"
	ColLoadDate      = "bronze_load_date"
)

// ChronicConditionColumns is the fixed whitelist of chronic condition
// indicator flags counted for each beneficiary. Columns absent from a given
// extract contribute zero.
var ChronicConditionColumns = []string{
	"sp_alzhdmta", "sp_chf", "sp_chrnkidn", "sp_cncr", "sp_copd",
	"sp_depressn", "sp_diabetes", "sp_ischmcht", "sp_osteoprs",
	"sp_ra_oa", "sp_strketia",
}

// ChronicPresentMarker is the value indicating a condition is present.
const ChronicPresentMarker = "1"

// maxDiagnosisSlots bounds slot discovery; DE-SynPUF inpatient files carry at
// most ten positional diagnosis columns.
const maxDiagnosisSlots = 10

func diagnosisSlotNames() []string {
	slots := make([]string, 0, maxDiagnosisSlots)
	for i := 1; i <= maxDiagnosisSlots; i++ {
		slots = append(slots, fmt.Sprintf("icd9_dgns_cd_%d", i))
	}
	return slots
}

// Beneficiary returns the beneficiary source schema.
func Beneficiary() SourceSchema {
	return SourceSchema{
		Source: constants.SourceBeneficiary,
		Required: []string{
			"desynpuf_id", "bene_birth_dt", "bene_sex_ident_cd", "bene_race_cd",
			ColLoadTimestamp, ColLoadDate,
		},
		Optional: append([]string{"bene_death_dt"}, ChronicConditionColumns...),
	}
}

// Claims returns the schema for the named claim source. Diagnosis slots are
// declared on inpatient only.
func Claims(source string) SourceSchema {
	s := SourceSchema{
		Source: source,
		Required: []string{
			"desynpuf_id", "clm_id", "clm_from_dt", "clm_thru_dt",
			ColLoadTimestamp, ColLoadDate,
		},
		Optional: []string{"clm_pmt_amt"},
	}
	if source == constants.SourceInpatient {
		s.DiagnosisSlots = diagnosisSlotNames()
		s.Optional = append(s.Optional, s.DiagnosisSlots...)
	}
	return s
}

// Prescription returns the Part D event source schema.
func Prescription() SourceSchema {
	return SourceSchema{
		Source: constants.SourcePrescription,
		Required: []string{
			"desynpuf_id", "pde_id", "srvc_dt", "qty_dspnsd_num",
			"days_suply_num", "tot_rx_cst_amt",
			ColLoadTimestamp, ColLoadDate,
		},
		Optional: []string{"ptnt_pay_amt"},
	}
}
