package source

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dimchansky/utfbom"
	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/desynpuf-etl/silver/constants"
	"github.com/CMSgov/desynpuf-etl/silver/ers"
	"github.com/CMSgov/desynpuf-etl/silver/models"
	"github.com/CMSgov/desynpuf-etl/silver/schema"
)

// Batches are immutable once loaded; transforms derive new slices and never
// write back into a batch.

type BeneficiaryBatch struct {
	Presence schema.Presence
	Rows     []models.BeneficiarySnapshot
}

type ClaimBatch struct {
	ClaimType string
	Presence  schema.Presence
	Rows      []models.ClaimRecord
}

type PrescriptionBatch struct {
	Presence schema.Presence
	Rows     []models.PrescriptionRecord
}

// Loader reads bronze extracts into typed batches. Every extract file for a
// source is read in lexicographic order and rows are assigned a monotonically
// increasing ingestion sequence across files; the sequence is the
// deterministic tie-break for snapshots sharing a load timestamp.
type Loader struct {
	Logger     logrus.FieldLogger
	Handler    FileHandler
	BronzePath string
}

// frame is one parsed extract file: its column order and data rows.
type frame struct {
	presence schema.Presence
	index    colIndex
	records  [][]string
}

func (l Loader) LoadBeneficiary() (*BeneficiaryBatch, error) {
	frames, err := l.readFrames(constants.SourceBeneficiary, schema.Beneficiary())
	if err != nil {
		return nil, err
	}

	batch := &BeneficiaryBatch{Presence: frames[0].presence}
	seq := 0
	for _, fr := range frames {
		for _, rec := range fr.records {
			loadTS, loadDate, err := fr.provenance(rec)
			if err != nil {
				return nil, &ers.SourceUnavailableError{Source: constants.SourceBeneficiary, Err: err}
			}

			snap := models.BeneficiarySnapshot{
				DesynpufID:    fr.index.get(rec, "desynpuf_id"),
				BirthDtCd:     fr.index.get(rec, "bene_birth_dt"),
				DeathDtCd:     fr.index.get(rec, "bene_death_dt"),
				SexIdentCd:    fr.index.get(rec, "bene_sex_ident_cd"),
				RaceCd:        fr.index.get(rec, "bene_race_cd"),
				ChronicFlags:  make(map[string]string),
				LoadTimestamp: loadTS,
				LoadDate:      loadDate,
				Seq:           seq,
			}
			for _, col := range schema.ChronicConditionColumns {
				if fr.presence.Has(col) {
					snap.ChronicFlags[col] = fr.index.get(rec, col)
				}
			}
			batch.Rows = append(batch.Rows, snap)
			seq++
		}
	}

	l.Logger.Infof("Loaded %s: %d records", constants.SourceBeneficiary, len(batch.Rows))
	return batch, nil
}

func (l Loader) LoadClaims(claimType string) (*ClaimBatch, error) {
	frames, err := l.readFrames(claimType, schema.Claims(claimType))
	if err != nil {
		return nil, err
	}

	batch := &ClaimBatch{ClaimType: claimType, Presence: frames[0].presence}
	seq := 0
	for _, fr := range frames {
		for _, rec := range fr.records {
			loadTS, loadDate, err := fr.provenance(rec)
			if err != nil {
				return nil, &ers.SourceUnavailableError{Source: claimType, Err: err}
			}

			claim := models.ClaimRecord{
				DesynpufID:    fr.index.get(rec, "desynpuf_id"),
				ClaimID:       fr.index.get(rec, "clm_id"),
				FromDtCd:      fr.index.get(rec, "clm_from_dt"),
				ThruDtCd:      fr.index.get(rec, "clm_thru_dt"),
				PaymentRaw:    fr.index.get(rec, "clm_pmt_amt"),
				LoadTimestamp: loadTS,
				LoadDate:      loadDate,
				Seq:           seq,
			}
			for _, slot := range batch.Presence.Slots {
				claim.DiagnosisCodes = append(claim.DiagnosisCodes, fr.index.get(rec, slot))
			}
			batch.Rows = append(batch.Rows, claim)
			seq++
		}
	}

	l.Logger.Infof("Loaded %s: %d records", claimType, len(batch.Rows))
	return batch, nil
}

func (l Loader) LoadPrescription() (*PrescriptionBatch, error) {
	frames, err := l.readFrames(constants.SourcePrescription, schema.Prescription())
	if err != nil {
		return nil, err
	}

	batch := &PrescriptionBatch{Presence: frames[0].presence}
	seq := 0
	for _, fr := range frames {
		for _, rec := range fr.records {
			loadTS, loadDate, err := fr.provenance(rec)
			if err != nil {
				return nil, &ers.SourceUnavailableError{Source: constants.SourcePrescription, Err: err}
			}

			batch.Rows = append(batch.Rows, models.PrescriptionRecord{
				DesynpufID:      fr.index.get(rec, "desynpuf_id"),
				EventID:         fr.index.get(rec, "pde_id"),
				ServiceDtCd:     fr.index.get(rec, "srvc_dt"),
				QtyDispensedRaw: fr.index.get(rec, "qty_dspnsd_num"),
				DaysSupplyRaw:   fr.index.get(rec, "days_suply_num"),
				TotalCostRaw:    fr.index.get(rec, "tot_rx_cst_amt"),
				PatientPayRaw:   fr.index.get(rec, "ptnt_pay_amt"),
				LoadTimestamp:   loadTS,
				LoadDate:        loadDate,
				Seq:             seq,
			})
			seq++
		}
	}

	l.Logger.Infof("Loaded %s: %d records", constants.SourcePrescription, len(batch.Rows))
	return batch, nil
}

// readFrames lists and parses every extract file for a source. No files, an
// unreadable file, or a file missing required columns all make the source
// unavailable; the caller's branch is skipped without failing the run.
func (l Loader) readFrames(sourceName string, s schema.SourceSchema) ([]frame, error) {
	files, err := l.Handler.ListFiles(l.sourcePath(sourceName))
	if err != nil {
		return nil, &ers.SourceUnavailableError{Source: sourceName, Err: err}
	}
	if len(files) == 0 {
		return nil, &ers.SourceUnavailableError{Source: sourceName, Err: errors.New("no bronze extract files found")}
	}

	var frames []frame
	for _, file := range files {
		fr, err := l.readFrame(file, s)
		if err != nil {
			l.Logger.Errorf("Could not load %s file %s: %s", sourceName, file, err)
			return nil, &ers.SourceUnavailableError{Source: sourceName, Err: err}
		}
		frames = append(frames, fr)
	}
	return frames, nil
}

func (l Loader) readFrame(file string, s schema.SourceSchema) (frame, error) {
	rc, err := l.Handler.OpenFile(file)
	if err != nil {
		return frame{}, err
	}
	defer rc.Close() // #nosec G307

	// Trim the Byte Order Marker if it's present
	reader := utfbom.SkipOnly(rc)

	df := dataframe.ReadCSV(reader, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Err != nil {
		return frame{}, errors.Wrap(df.Err, "failed to create dataframe")
	}

	presence, err := s.Resolve(df.Names())
	if err != nil {
		return frame{}, err
	}

	records := df.Records()
	return frame{
		presence: presence,
		index:    indexColumns(records[0]),
		records:  records[1:],
	}, nil
}

func (l Loader) sourcePath(sourceName string) string {
	if strings.HasPrefix(l.BronzePath, "s3://") {
		return strings.TrimSuffix(l.BronzePath, "/") + "/" + sourceName
	}
	return filepath.Join(l.BronzePath, sourceName)
}

// colIndex links column names to their position within a record.
type colIndex map[string]int

func indexColumns(headers []string) colIndex {
	idx := make(colIndex, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return idx
}

// get returns the value at the named column, or "" when the column is absent
// from this frame.
func (c colIndex) get(record []string, column string) string {
	i, ok := c[column]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func (fr frame) provenance(record []string) (loadTS, loadDate time.Time, err error) {
	rawTS := fr.index.get(record, schema.ColLoadTimestamp)
	loadTS, err = time.Parse(time.RFC3339, rawTS)
	if err != nil {
		return loadTS, loadDate, errors.Wrapf(err, "bad %s value %q", schema.ColLoadTimestamp, rawTS)
	}

	rawDate := fr.index.get(record, schema.ColLoadDate)
	loadDate, err = time.Parse("2006-01-02", rawDate)
	if err != nil {
		return loadTS, loadDate, errors.Wrapf(err, "bad %s value %q", schema.ColLoadDate, rawDate)
	}

	return loadTS, loadDate, nil
}
