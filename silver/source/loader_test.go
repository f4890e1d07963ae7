package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/CMSgov/desynpuf-etl/silver/constants"
	"github.com/CMSgov/desynpuf-etl/silver/ers"
)

type LoaderTestSuite struct {
	suite.Suite
	bronze string
	loader Loader
}

func (s *LoaderTestSuite) SetupTest() {
	s.bronze = s.T().TempDir()
	s.loader = Loader{
		Logger:     logrus.New(),
		Handler:    &LocalFileHandler{Logger: logrus.New()},
		BronzePath: s.bronze,
	}
}

func (s *LoaderTestSuite) writeExtract(sourceName, fileName, content string) {
	dir := filepath.Join(s.bronze, sourceName)
	s.NoError(os.MkdirAll(dir, 0750))
	s.NoError(os.WriteFile(filepath.Join(dir, fileName), []byte(content), 0600))
}

func (s *LoaderTestSuite) TestLoadBeneficiary() {
	assert := assert.New(s.T())

	s.writeExtract(constants.SourceBeneficiary, "extract_20240101.csv",
		"desynpuf_id,bene_birth_dt,bene_death_dt,bene_sex_ident_cd,bene_race_cd,sp_diabetes,bronze_load_timestamp,bronze_load_date\n"+
			"00013D2EFD8E45D1,19400101,,1,1,1,2024-01-01T06:00:00Z,2024-01-01\n")
	s.writeExtract(constants.SourceBeneficiary, "extract_20240201.csv",
		"desynpuf_id,bene_birth_dt,bene_death_dt,bene_sex_ident_cd,bene_race_cd,sp_diabetes,bronze_load_timestamp,bronze_load_date\n"+
			"00013D2EFD8E45D1,19400101,20240115,1,1,2,2024-02-01T06:00:00Z,2024-02-01\n")

	batch, err := s.loader.LoadBeneficiary()
	assert.NoError(err)
	assert.Len(batch.Rows, 2)

	// Ingestion sequence continues across extract files, in file order
	assert.Equal(0, batch.Rows[0].Seq)
	assert.Equal(1, batch.Rows[1].Seq)

	assert.Equal("00013D2EFD8E45D1", batch.Rows[0].DesynpufID)
	assert.Equal("", batch.Rows[0].DeathDtCd)
	assert.Equal("20240115", batch.Rows[1].DeathDtCd)
	assert.Equal("1", batch.Rows[0].ChronicFlags["sp_diabetes"])

	assert.Equal(time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), batch.Rows[0].LoadTimestamp)
	assert.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), batch.Rows[0].LoadDate)
	assert.True(batch.Presence.Has("sp_diabetes"))
	assert.False(batch.Presence.Has("sp_chf"))
}

func (s *LoaderTestSuite) TestLoadBeneficiaryMissingSource() {
	_, err := s.loader.LoadBeneficiary()

	var unavailable *ers.SourceUnavailableError
	assert.ErrorAs(s.T(), err, &unavailable)
	assert.Equal(s.T(), constants.SourceBeneficiary, unavailable.Source)
}

func (s *LoaderTestSuite) TestLoadBeneficiaryMissingRequiredColumn() {
	s.writeExtract(constants.SourceBeneficiary, "extract.csv",
		"desynpuf_id,bene_sex_ident_cd,bronze_load_timestamp,bronze_load_date\n"+
			"00013D2EFD8E45D1,1,2024-01-01T06:00:00Z,2024-01-01\n")

	_, err := s.loader.LoadBeneficiary()

	var unavailable *ers.SourceUnavailableError
	assert.ErrorAs(s.T(), err, &unavailable)

	var missing *ers.MissingRequiredColumnError
	assert.ErrorAs(s.T(), err, &missing)
	assert.Equal(s.T(), "bene_birth_dt", missing.Column)
}

func (s *LoaderTestSuite) TestLoadBeneficiaryBadProvenance() {
	s.writeExtract(constants.SourceBeneficiary, "extract.csv",
		"desynpuf_id,bene_birth_dt,bene_sex_ident_cd,bene_race_cd,bronze_load_timestamp,bronze_load_date\n"+
			"00013D2EFD8E45D1,19400101,1,1,not-a-timestamp,2024-01-01\n")

	_, err := s.loader.LoadBeneficiary()

	var unavailable *ers.SourceUnavailableError
	assert.ErrorAs(s.T(), err, &unavailable)
}

func (s *LoaderTestSuite) TestLoadInpatientClaims() {
	assert := assert.New(s.T())

	s.writeExtract(constants.SourceInpatient, "extract.csv",
		"desynpuf_id,clm_id,clm_from_dt,clm_thru_dt,clm_pmt_amt,icd9_dgns_cd_1,icd9_dgns_cd_2,bronze_load_timestamp,bronze_load_date\n"+
			"00013D2EFD8E45D1,196661176988405,20080101,20080105,15000.00,250.00,,2024-01-01T06:00:00Z,2024-01-01\n")

	batch, err := s.loader.LoadClaims(constants.SourceInpatient)
	assert.NoError(err)
	assert.Len(batch.Rows, 1)

	assert.Equal("inpatient", batch.ClaimType)
	assert.True(batch.Presence.Has("clm_pmt_amt"))
	assert.Equal([]string{"icd9_dgns_cd_1", "icd9_dgns_cd_2"}, batch.Presence.Slots)
	assert.Equal([]string{"250.00", ""}, batch.Rows[0].DiagnosisCodes)
	assert.Equal("15000.00", batch.Rows[0].PaymentRaw)
}

func (s *LoaderTestSuite) TestLoadCarrierClaimsWithoutPayment() {
	assert := assert.New(s.T())

	s.writeExtract(constants.SourceCarrier, "extract.csv",
		"desynpuf_id,clm_id,clm_from_dt,clm_thru_dt,bronze_load_timestamp,bronze_load_date\n"+
			"00013D2EFD8E45D1,887213386947664,20080601,20080601,2024-01-01T06:00:00Z,2024-01-01\n")

	batch, err := s.loader.LoadClaims(constants.SourceCarrier)
	assert.NoError(err)
	assert.False(batch.Presence.Has("clm_pmt_amt"))
	assert.Equal("", batch.Rows[0].PaymentRaw)
	assert.Empty(batch.Presence.Slots)
}

func (s *LoaderTestSuite) TestLoadPrescription() {
	assert := assert.New(s.T())

	s.writeExtract(constants.SourcePrescription, "extract.csv",
		"desynpuf_id,pde_id,srvc_dt,qty_dspnsd_num,days_suply_num,tot_rx_cst_amt,ptnt_pay_amt,bronze_load_timestamp,bronze_load_date\n"+
			"00013D2EFD8E45D1,233846006069212,20080915,30,30,300,40,2024-01-01T06:00:00Z,2024-01-01\n")

	batch, err := s.loader.LoadPrescription()
	assert.NoError(err)
	assert.Len(batch.Rows, 1)
	assert.Equal("233846006069212", batch.Rows[0].EventID)
	assert.Equal("30", batch.Rows[0].DaysSupplyRaw)
	assert.True(batch.Presence.Has("ptnt_pay_amt"))
}

func (s *LoaderTestSuite) TestNonCSVFilesSkipped() {
	s.writeExtract(constants.SourceBeneficiary, "notes.txt", "not a csv")
	s.writeExtract(constants.SourceBeneficiary, "extract.csv",
		"desynpuf_id,bene_birth_dt,bene_sex_ident_cd,bene_race_cd,bronze_load_timestamp,bronze_load_date\n"+
			"00013D2EFD8E45D1,19400101,1,1,2024-01-01T06:00:00Z,2024-01-01\n")

	batch, err := s.loader.LoadBeneficiary()
	assert.NoError(s.T(), err)
	assert.Len(s.T(), batch.Rows, 1)
}

func TestLoaderTestSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}

func TestParseS3Uri(t *testing.T) {
	bucket, key := ParseS3Uri("s3://my-bucket/path/to/file")
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/file", key)

	bucket, key = ParseS3Uri("s3://my-bucket")
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "", key)
}
