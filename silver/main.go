package main

import (
	"os"

	"github.com/CMSgov/desynpuf-etl/log"
	"github.com/CMSgov/desynpuf-etl/silver/silvercli"
)

func main() {
	if err := silvercli.GetApp().Run(os.Args); err != nil {
		log.ETL.Fatal(err)
	}
}
