// Package main - Atlas GORM migration support binary
package main

import (
	"fmt"

	"ariga.io/atlas-provider-gorm/gormschema"
	"github.com/apex/log"
	"github.com/sigqms/doccontrol/db"
)

func main() {
	stmts, err := gormschema.New("postgres").Load(
		&db.RegistryEntryDBEntry{},
		&db.DocumentRecordDBEntry{},
		&db.ProposalDBEntry{},
		&db.ImprovementActionDBEntry{},
		&db.ReportTemplateDBEntry{},
		&db.FormulaDBEntry{},
		&db.ScorecardIndicatorDBEntry{},
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to load GORM models")
	}
	fmt.Printf("%s\n", stmts)
}
