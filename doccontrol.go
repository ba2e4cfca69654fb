// Package doccontrol - quality management document control backend
package doccontrol

import (
	"context"
	"fmt"
	"time"

	"github.com/sigqms/doccontrol/codegen"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/notify"
	"github.com/sigqms/doccontrol/objectstore"
	"github.com/sigqms/doccontrol/services"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DocumentControl the assembled document control backend
type DocumentControl struct {
	// Registry the master document list
	Registry services.RegistryService
	// Documents the controlled document records
	Documents services.DocumentsService
	// Proposals the change proposal workflow
	Proposals services.ProposalsService
	// Improvement the improvement action log
	Improvement services.ImprovementService
	// Scorecard the balanced scorecard
	Scorecard services.ScorecardService
	// Codes the document code generator
	Codes codegen.Generator
}

// Params parameters for assembling the document control backend
type Params struct {
	// DBDialector GORM dialector for the backing database
	DBDialector gorm.Dialector
	// DBLogLevel SQL log level
	DBLogLevel logger.LogLevel
	// Store attachment and template object store
	Store objectstore.ObjectStore
	// SMTP mail transport settings. Leave empty to drop notifications.
	SMTP notify.SMTPConfig
	// Directory responsible name to mail address directory
	Directory *notify.Directory
	// ReservationTTL lifetime of code reservations. Zero selects the default.
	ReservationTTL time.Duration
}

/*
New assemble a document control backend instance.

Each instance is backed by a SQL database; two instances using the same
database operate on the same document corpus.

	@param ctx context.Context - execution context
	@param params Params - assembly parameters
	@returns new backend instance
*/
func New(ctx context.Context, params Params) (*DocumentControl, error) {
	// Prepare persistence
	persistence, err := db.NewConnection(params.DBDialector, params.DBLogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized persistence client [%w]", err)
	}

	store := params.Store
	if store == nil {
		store = objectstore.NewMemoryStore()
	}

	sink, err := notify.NewSMTPSink(params.SMTP, params.Directory, store)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized notification sink [%w]", err)
	}

	generator, err := codegen.NewGenerator(persistence, params.ReservationTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized code generator [%w]", err)
	}

	registry, err := services.NewRegistryService(persistence, sink)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized registry service [%w]", err)
	}
	documents, err := services.NewDocumentsService(persistence, store, registry, sink)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized documents service [%w]", err)
	}
	proposals, err := services.NewProposalsService(persistence, store, sink)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized proposals service [%w]", err)
	}
	improvement, err := services.NewImprovementService(persistence, store, sink)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized improvement service [%w]", err)
	}
	scorecard, err := services.NewScorecardService(persistence)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized scorecard service [%w]", err)
	}

	return &DocumentControl{
		Registry:    registry,
		Documents:   documents,
		Proposals:   proposals,
		Improvement: improvement,
		Scorecard:   scorecard,
		Codes:       generator,
	}, nil
}
