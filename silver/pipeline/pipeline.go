// Package pipeline supervises the silver ETL branches. Each branch loads its
// bronze source, transforms it, and writes one silver dataset. Branches are
// independent: any failure is caught at the branch boundary and converted to
// an absent result so the remaining branches still run and write.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/desynpuf-etl/silver/beneficiary"
	"github.com/CMSgov/desynpuf-etl/silver/catalog"
	"github.com/CMSgov/desynpuf-etl/silver/claims"
	"github.com/CMSgov/desynpuf-etl/silver/constants"
	"github.com/CMSgov/desynpuf-etl/silver/diagnosis"
	"github.com/CMSgov/desynpuf-etl/silver/models"
	"github.com/CMSgov/desynpuf-etl/silver/prescription"
	"github.com/CMSgov/desynpuf-etl/silver/sink"
	"github.com/CMSgov/desynpuf-etl/silver/source"
)

// BranchResult is the outcome of one branch: rows written, an absent marker
// when the branch's source could not be loaded, or a branch-fatal error.
type BranchResult struct {
	Dataset string
	Rows    int
	Absent  bool
	Err     error
}

type RunReport struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []BranchResult
}

// Failures counts branches that ended in a branch-fatal error. Absent
// branches are not failures.
func (r RunReport) Failures() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

type Pipeline struct {
	Logger    logrus.FieldLogger
	Loader    source.Loader
	Sink      sink.Writer
	Registrar catalog.Registrar
	// Database is the catalog database to register partitions in; empty
	// disables registration.
	Database string
	Now      time.Time
}

// Run executes all four branches and reports every branch outcome together.
// It never returns an error itself; callers decide what a failure count
// means.
func (p Pipeline) Run(ctx context.Context) RunReport {
	report := RunReport{RunID: uuid.NewRandom().String(), Started: p.Now}
	logger := p.Logger.WithField("run_id", report.RunID)

	logger.Info("Silver layer ETL starting")

	report.Results = append(report.Results, p.beneficiaryBranch(ctx, logger))

	cleansed := p.loadAndCleanse(logger)
	report.Results = append(report.Results, p.claimsBranch(ctx, logger, cleansed))
	report.Results = append(report.Results, p.prescriptionBranch(ctx, logger))
	report.Results = append(report.Results, p.diagnosisBranch(ctx, logger, cleansed[constants.SourceInpatient]))

	report.Finished = time.Now()
	p.summarize(logger, report)
	return report
}

func (p Pipeline) beneficiaryBranch(ctx context.Context, logger logrus.FieldLogger) BranchResult {
	result := BranchResult{Dataset: constants.DatasetBeneficiary}

	batch, err := p.Loader.LoadBeneficiary()
	if err != nil {
		logger.Warnf("Skipping beneficiary branch: %s", err)
		result.Absent = true
		return result
	}

	builder := beneficiary.HistoryBuilder{Logger: logger, Now: p.Now}
	versions := builder.Build(batch)

	result.Rows, result.Err = sink.WriteDataset(p.Sink, result.Dataset, versions,
		func(v models.BeneficiaryVersion) []sink.Partition {
			return []sink.Partition{{Key: "is_current", Value: strconv.FormatBool(v.IsCurrent)}}
		})
	if result.Err != nil {
		logger.Error(result.Err)
		return result
	}

	p.registerPartitions(ctx, logger, result.Dataset)
	return result
}

// loadAndCleanse produces the per-type cleansed claim batches. A type whose
// source is unavailable or whose cleansing fails maps to nil and is skipped
// downstream without failing the run.
func (p Pipeline) loadAndCleanse(logger logrus.FieldLogger) map[string]*claims.CleansedBatch {
	cleanser := claims.Cleanser{Logger: logger}
	cleansed := make(map[string]*claims.CleansedBatch)

	for _, claimType := range []string{constants.SourceInpatient, constants.SourceOutpatient, constants.SourceCarrier} {
		batch, err := p.Loader.LoadClaims(claimType)
		if err != nil {
			logger.Warnf("Skipping %s claims: %s", claimType, err)
			cleansed[claimType] = nil
			continue
		}
		cleansed[claimType] = cleanser.Cleanse(batch)
	}

	return cleansed
}

func (p Pipeline) claimsBranch(ctx context.Context, logger logrus.FieldLogger, cleansed map[string]*claims.CleansedBatch) BranchResult {
	result := BranchResult{Dataset: constants.DatasetClaims}

	inpatient := cleansed[constants.SourceInpatient]
	outpatient := cleansed[constants.SourceOutpatient]
	carrier := cleansed[constants.SourceCarrier]
	if inpatient == nil && outpatient == nil && carrier == nil {
		result.Absent = true
		return result
	}

	unified := claims.Unify(logger, inpatient, outpatient, carrier)

	result.Rows, result.Err = sink.WriteDataset(p.Sink, result.Dataset, unified,
		func(c models.UnifiedClaim) []sink.Partition {
			return []sink.Partition{
				{Key: "claim_year", Value: strconv.Itoa(int(c.Year))},
				{Key: "claim_type", Value: c.ClaimType},
			}
		})
	if result.Err != nil {
		logger.Error(result.Err)
		return result
	}

	p.registerPartitions(ctx, logger, result.Dataset)
	return result
}

func (p Pipeline) prescriptionBranch(ctx context.Context, logger logrus.FieldLogger) BranchResult {
	result := BranchResult{Dataset: constants.DatasetPrescription}

	batch, err := p.Loader.LoadPrescription()
	if err != nil {
		logger.Warnf("Skipping prescription branch: %s", err)
		result.Absent = true
		return result
	}

	normalizer := prescription.Normalizer{Logger: logger}
	events := normalizer.Normalize(batch)

	result.Rows, result.Err = sink.WriteDataset(p.Sink, result.Dataset, events,
		func(e models.PrescriptionEvent) []sink.Partition {
			return []sink.Partition{
				{Key: "prescription_year", Value: strconv.Itoa(int(e.Year))},
				{Key: "prescription_month", Value: strconv.Itoa(int(e.Month))},
			}
		})
	if result.Err != nil {
		logger.Error(result.Err)
		return result
	}

	p.registerPartitions(ctx, logger, result.Dataset)
	return result
}

func (p Pipeline) diagnosisBranch(ctx context.Context, logger logrus.FieldLogger, inpatient *claims.CleansedBatch) BranchResult {
	result := BranchResult{Dataset: constants.DatasetDiagnosis}

	if inpatient == nil {
		logger.Warn("Skipping diagnosis branch: no cleansed inpatient claims")
		result.Absent = true
		return result
	}

	assignments := diagnosis.Unpivot(logger, inpatient)
	if len(inpatient.Slots) == 0 {
		// No positional diagnosis columns in this extract; nothing to write.
		return result
	}

	result.Rows, result.Err = sink.WriteDataset(p.Sink, result.Dataset, assignments,
		func(a models.DiagnosisAssignment) []sink.Partition {
			return []sink.Partition{{Key: "diagnosis_sequence", Value: strconv.Itoa(int(a.Sequence))}}
		})
	if result.Err != nil {
		logger.Error(result.Err)
		return result
	}

	p.registerPartitions(ctx, logger, result.Dataset)
	return result
}

// registerPartitions is best effort; a catalog failure never fails the run.
func (p Pipeline) registerPartitions(ctx context.Context, logger logrus.FieldLogger, table string) {
	if p.Registrar == nil || p.Database == "" {
		return
	}
	if err := p.Registrar.RepairTable(ctx, p.Database, table); err != nil {
		logger.Warnf("Catalog registration for %s.%s failed: %s", p.Database, table, err)
	}
}

func (p Pipeline) summarize(logger logrus.FieldLogger, report RunReport) {
	for _, res := range report.Results {
		status := "written"
		switch {
		case res.Err != nil:
			status = fmt.Sprintf("failed: %s", res.Err)
		case res.Absent:
			status = "absent"
		}
		logger.WithFields(logrus.Fields{
			"dataset": res.Dataset,
			"rows":    res.Rows,
		}).Infof("Branch %s: %s", res.Dataset, status)
	}
	logger.Infof("Silver layer ETL completed in %s (%d branch failures)",
		report.Finished.Sub(report.Started), report.Failures())
}
