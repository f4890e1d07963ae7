package constants

// Bronze source names. These double as the directory names the bronze
// extraction step writes under the bronze root.
const (
	SourceBeneficiary  = "beneficiary"
	SourceInpatient    = "inpatient"
	SourceOutpatient   = "outpatient"
	SourceCarrier      = "carrier"
	SourcePrescription = "prescription"
)

// Silver dataset names. The sink derives each dataset's output location from
// its name.
const (
	DatasetBeneficiary  = "beneficiary_clean"
	DatasetClaims       = "claims_unified"
	DatasetPrescription = "prescriptions_clean"
	DatasetDiagnosis    = "diagnosis_normalized"
)

// SentinelEndDate closes the open-ended interval of a beneficiary's current
// version.
const SentinelEndDate = "9999-12-31"

// HighCostThreshold marks a claim as high cost when payment_amount strictly
// exceeds it.
const HighCostThreshold = 10000.0

// DateCodeLayout is the 8-digit year-month-day format used by every bronze
// date code.
const DateCodeLayout = "20060102"

// This is set during compilation. See build_and_package.sh in the ops repo
var Version = "latest"
