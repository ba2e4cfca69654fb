package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func sampleDocumentRecord(code string) models.DocumentRecord {
	return models.DocumentRecord{
		Process: models.ProcessQualitySafety,
		Code:    code,
		Name:    uuid.NewString(),
		Kind:    models.DocumentKindForm,
		Version: "1",
	}
}

// TestDBDocumentRecordCRUD verifies the behavior of `Database.CreateDocumentRecord`,
// `Database.GetDocumentRecord`, `Database.UpdateDocumentRecord`, and
// `Database.DeleteDocumentRecord`.
func TestDBDocumentRecordCRUD(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// Create a unique temporary DB file for this test
	testDB := fmt.Sprintf("/tmp/doccontrol_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// -------------------------------------------------------------------------
	// 1 – Record a new document
	var doc models.DocumentRecord
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		d, err := dbClient.CreateDocumentRecord(ctx, sampleDocumentRecord("RE-GS-01"))
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	assert.Nil(err)
	assert.NotEmpty(doc.ID)

	// 2 – Get back the document and verify its content
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		d, err := dbClient.GetDocumentRecord(ctx, doc.ID)
		if err != nil {
			return err
		}
		assert.Equal(doc.Name, d.Name)
		assert.False(d.Attachment.Present())
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 3 – Attach a file and bump the version
	doc.Version = "2"
	doc.Attachment = models.Attachment{
		Name:        "formato.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		StoreRef:    uuid.NewString(),
		Size:        2048,
	}
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		updated, err := dbClient.UpdateDocumentRecord(ctx, doc)
		if err != nil {
			return err
		}
		assert.Equal("2", updated.Version)
		assert.True(updated.Attachment.Present())
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 4 – Delete the document
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		return dbClient.DeleteDocumentRecord(ctx, doc.ID)
	})
	assert.Nil(err)
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.GetDocumentRecord(ctx, doc.ID)
		return err
	})
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))
}

// TestDBDocumentRecordListing verifies the behavior of `Database.ListDocumentRecords`
// with its filter conditions.
func TestDBDocumentRecordListing(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/doccontrol_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// -------------------------------------------------------------------------
	// 1 – Record documents across processes and kinds
	seeds := []models.DocumentRecord{
		sampleDocumentRecord("RE-GS-01"),
		sampleDocumentRecord("RE-GP-01"),
		sampleDocumentRecord("IN-GP-01"),
	}
	seeds[1].Process = models.ProcessProduction
	seeds[2].Process = models.ProcessProduction
	seeds[2].Kind = models.DocumentKindTemplate
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		for _, seed := range seeds {
			if _, err := dbClient.CreateDocumentRecord(ctx, seed); err != nil {
				return err
			}
		}
		return nil
	})
	assert.Nil(err)

	// 2 – Filter by process
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		process := models.ProcessProduction
		docs, err := dbClient.ListDocumentRecords(
			ctx, db.DocumentRecordQueryFilter{Process: &process},
		)
		if err != nil {
			return err
		}
		assert.Len(docs, 2)
		return nil
	})
	assert.Nil(err)

	// 3 – Filter by kind
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		kind := models.DocumentKindTemplate
		docs, err := dbClient.ListDocumentRecords(ctx, db.DocumentRecordQueryFilter{Kind: &kind})
		if err != nil {
			return err
		}
		assert.Len(docs, 1)
		assert.Equal("IN-GP-01", docs[0].Code)
		return nil
	})
	assert.Nil(err)

	// 4 – Search over code
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		search := "RE-"
		docs, err := dbClient.ListDocumentRecords(ctx, db.DocumentRecordQueryFilter{Search: &search})
		if err != nil {
			return err
		}
		assert.Len(docs, 2)
		return nil
	})
	assert.Nil(err)
}
