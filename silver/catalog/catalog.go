// Package catalog registers freshly written dataset partitions with the
// downstream query catalog. Registration is best effort: written data stands
// on its own and a catalog failure is only ever a warning to the run.
package catalog

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/athena"
	"github.com/aws/aws-sdk-go/service/athena/athenaiface"
	"github.com/sirupsen/logrus"
)

type Registrar interface {
	// Discover the named table's partitions in the given database.
	RepairTable(ctx context.Context, database, table string) error
}

// AthenaRegistrar repairs tables by issuing MSCK REPAIR TABLE through Athena.
type AthenaRegistrar struct {
	Logger         logrus.FieldLogger
	Svc            athenaiface.AthenaAPI
	OutputLocation string
}

func NewAthenaRegistrar(logger logrus.FieldLogger, outputLocation string) *AthenaRegistrar {
	sess := session.Must(session.NewSession(&aws.Config{Region: aws.String("us-east-1")}))
	return &AthenaRegistrar{
		Logger:         logger,
		Svc:            athena.New(sess),
		OutputLocation: outputLocation,
	}
}

func (r *AthenaRegistrar) RepairTable(ctx context.Context, database, table string) error {
	query := "MSCK REPAIR TABLE " + database + "." + table

	resp, err := r.Svc.StartQueryExecutionWithContext(ctx, &athena.StartQueryExecutionInput{
		QueryString:           aws.String(query),
		QueryExecutionContext: &athena.QueryExecutionContext{Database: aws.String(database)},
		ResultConfiguration:   &athena.ResultConfiguration{OutputLocation: aws.String(r.OutputLocation)},
	})
	if err != nil {
		return err
	}

	r.Logger.Infof("Partition repair started for %s.%s (query id %s)", database, table, *resp.QueryExecutionId)
	return nil
}

// NoopRegistrar is used for local runs with no catalog to talk to.
type NoopRegistrar struct{}

func (NoopRegistrar) RepairTable(ctx context.Context, database, table string) error {
	return nil
}
