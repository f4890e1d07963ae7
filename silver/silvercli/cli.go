package silvercli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/CMSgov/desynpuf-etl/conf"
	"github.com/CMSgov/desynpuf-etl/log"
	"github.com/CMSgov/desynpuf-etl/silver/catalog"
	"github.com/CMSgov/desynpuf-etl/silver/constants"
	"github.com/CMSgov/desynpuf-etl/silver/pipeline"
	"github.com/CMSgov/desynpuf-etl/silver/sink"
	"github.com/CMSgov/desynpuf-etl/silver/source"
	"github.com/CMSgov/desynpuf-etl/silver/utils"
)

// App Name and usage. Edit them here to prevent breaking tests
const Name = "desynpuf-etl"
const Usage = "DE-SynPUF Silver Layer ETL CLI"

func GetApp() *cli.App {
	return setUpApp()
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = Name
	app.Usage = Usage
	app.Version = constants.Version
	var bronzePath, silverPath, database, athenaOutput, dirToDelete string
	app.Commands = []cli.Command{
		{
			Name:  "run-etl",
			Usage: "Transform the bronze layer into the silver datasets",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "bronze-path",
					Usage:       "Root of the bronze layer (local directory or s3:// URI)",
					Destination: &bronzePath,
				},
				cli.StringFlag{
					Name:        "silver-path",
					Usage:       "Directory the silver datasets are written under",
					Destination: &silverPath,
				},
				cli.StringFlag{
					Name:        "database",
					Usage:       "Catalog database to register partitions in (optional)",
					Destination: &database,
				},
				cli.StringFlag{
					Name:        "athena-output",
					Usage:       "S3 location Athena writes query results to",
					Destination: &athenaOutput,
				},
			},
			Action: func(c *cli.Context) error {
				if bronzePath == "" || silverPath == "" {
					return errors.New("bronze-path and silver-path are required")
				}
				return runETL(bronzePath, silverPath, database, athenaOutput)
			},
		},
		{
			Name:  "delete-silver",
			Usage: "Remove the contents of a silver output directory",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "path",
					Usage:       "Directory to clear",
					Destination: &dirToDelete,
				},
			},
			Action: func(c *cli.Context) error {
				deleted, err := utils.DeleteDirectoryContents(dirToDelete)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Deleted %d files from %s\n", deleted, dirToDelete)
				return nil
			},
		},
	}
	return app
}

func runETL(bronzePath, silverPath, database, athenaOutput string) error {
	var handler source.FileHandler
	if strings.HasPrefix(bronzePath, "s3://") {
		handler = &source.S3FileHandler{
			Logger:        log.Source,
			Endpoint:      conf.GetEnv("BRONZE_S3_ENDPOINT"),
			AssumeRoleArn: conf.GetEnv("BRONZE_ASSUME_ROLE_ARN"),
		}
	} else {
		handler = &source.LocalFileHandler{Logger: log.Source}
	}

	var registrar catalog.Registrar = catalog.NoopRegistrar{}
	if database != "" {
		registrar = catalog.NewAthenaRegistrar(log.ETL, athenaOutput)
	}

	p := pipeline.Pipeline{
		Logger:    log.ETL,
		Loader:    source.Loader{Logger: log.Source, Handler: handler, BronzePath: bronzePath},
		Sink:      sink.Writer{Root: silverPath, Logger: log.Sink},
		Registrar: registrar,
		Database:  database,
		Now:       time.Now(),
	}

	report := p.Run(context.Background())
	if failures := report.Failures(); failures > 0 {
		return fmt.Errorf("failed to write %d datasets", failures)
	}
	return nil
}
