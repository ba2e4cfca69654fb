package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func sampleRegistryEntry(code string) models.RegistryEntry {
	return models.RegistryEntry{
		Code:        code,
		Name:        uuid.NewString(),
		Process:     models.ProcessQualitySafety,
		DocType:     models.DocumentTypeRecord,
		Version:     "1",
		Responsible: "Coordinador de Calidad",
		Status:      models.DocumentStatusApproved,
		Active:      true,
	}
}

// TestDBRegistryEntryCRUD verifies the behavior of `Database.CreateRegistryEntry`,
// `Database.GetRegistryEntry`, `Database.GetRegistryEntryByCode`, and
// `Database.UpdateRegistryEntry`.
func TestDBRegistryEntryCRUD(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// Create a unique temporary DB file for this test
	testDB := fmt.Sprintf("/tmp/doccontrol_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	// Create a new DB connection
	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	// Create database tables
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// -------------------------------------------------------------------------
	// 1 – Record a new master list entry
	var entry1 models.RegistryEntry
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		e, err := dbClient.CreateRegistryEntry(ctx, sampleRegistryEntry("RE-GS-01"))
		if err != nil {
			return err
		}
		entry1 = e
		return nil
	})
	assert.Nil(err)
	assert.NotEmpty(entry1.ID)

	// 2 – Get back the entry by ID and by code
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		byID, err := dbClient.GetRegistryEntry(ctx, entry1.ID)
		if err != nil {
			return err
		}
		assert.Equal(entry1.Name, byID.Name)
		byCode, err := dbClient.GetRegistryEntryByCode(ctx, "RE-GS-01")
		if err != nil {
			return err
		}
		assert.Equal(entry1.ID, byCode.ID)
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 3 – Record another entry with the same code (should fail)
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.CreateRegistryEntry(ctx, sampleRegistryEntry("RE-GS-01"))
		return err
	})
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrConflict))

	// 4 – Deactivate the entry, then the same code is reusable
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		return dbClient.SetRegistryEntryActive(ctx, entry1.ID, false)
	})
	assert.Nil(err)
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.CreateRegistryEntry(ctx, sampleRegistryEntry("RE-GS-01"))
		return err
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 5 – Update the deactivated entry. A caller-constructed entry carries no
	// creation stamp; the stored one survives.
	entry1.Version = "2"
	entry1.PreviousVersion = "1"
	entry1.CreatedAt = time.Time{}
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		updated, err := dbClient.UpdateRegistryEntry(ctx, entry1)
		if err != nil {
			return err
		}
		assert.Equal("2", updated.Version)
		assert.False(updated.CreatedAt.IsZero())
		return nil
	})
	assert.Nil(err)

	// 6 – Fetch an unknown entry (should fail with not found)
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.GetRegistryEntry(ctx, uuid.NewString())
		return err
	})
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))
}

// TestDBRegistryEntryListing verifies the behavior of `Database.ListRegistryEntries`
// with its filter conditions.
func TestDBRegistryEntryListing(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/doccontrol_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// -------------------------------------------------------------------------
	// 1 – Record entries across processes and document types
	seeds := []models.RegistryEntry{
		sampleRegistryEntry("RE-GS-01"),
		sampleRegistryEntry("RE-GS-02"),
		sampleRegistryEntry("PR-GP-01"),
	}
	seeds[2].Process = models.ProcessProduction
	seeds[2].DocType = models.DocumentTypeProcedure
	seeds[2].Status = models.DocumentStatusPendingApproval
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		for _, seed := range seeds {
			if _, err := dbClient.CreateRegistryEntry(ctx, seed); err != nil {
				return err
			}
		}
		return nil
	})
	assert.Nil(err)

	// 2 – List without filters
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		entries, err := dbClient.ListRegistryEntries(ctx, db.RegistryEntryQueryFilter{})
		if err != nil {
			return err
		}
		assert.Len(entries, 3)
		return nil
	})
	assert.Nil(err)

	// 3 – Filter by process
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		process := models.ProcessProduction
		entries, err := dbClient.ListRegistryEntries(
			ctx, db.RegistryEntryQueryFilter{Process: &process},
		)
		if err != nil {
			return err
		}
		assert.Len(entries, 1)
		assert.Equal("PR-GP-01", entries[0].Code)
		return nil
	})
	assert.Nil(err)

	// 4 – Filter by status
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		entries, err := dbClient.ListRegistryEntries(ctx, db.RegistryEntryQueryFilter{
			Status: []models.DocumentStatusENUMType{models.DocumentStatusPendingApproval},
		})
		if err != nil {
			return err
		}
		assert.Len(entries, 1)
		return nil
	})
	assert.Nil(err)

	// 5 – Search over code and name
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		search := "RE-GS"
		entries, err := dbClient.ListRegistryEntries(
			ctx, db.RegistryEntryQueryFilter{Search: &search},
		)
		if err != nil {
			return err
		}
		assert.Len(entries, 2)
		return nil
	})
	assert.Nil(err)

	// 6 – Paginate
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		limit := 2
		offset := 2
		entries, err := dbClient.ListRegistryEntries(ctx, db.RegistryEntryQueryFilter{
			CommonListEntryQueryFilter: db.CommonListEntryQueryFilter{Limit: &limit, Offset: &offset},
		})
		if err != nil {
			return err
		}
		assert.Len(entries, 1)
		return nil
	})
	assert.Nil(err)
}

// TestDBRegistryCodeQueries verifies the behavior of `Database.ListTakenCodesWithPrefix`,
// `Database.CodeTaken`, and `Database.DeleteReservedRegistryEntries`.
func TestDBRegistryCodeQueries(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/doccontrol_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// -------------------------------------------------------------------------
	// 1 – Record one active entry, one reservation placeholder, and one inactive entry
	reserved := sampleRegistryEntry("RE-GS-02")
	reserved.Name = db.ReservedNamePrefix + "RE-GS-02"
	reserved.Active = false
	inactive := sampleRegistryEntry("RE-GS-03")
	inactive.Active = false
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		for _, seed := range []models.RegistryEntry{
			sampleRegistryEntry("RE-GS-01"), reserved, inactive,
		} {
			if _, err := dbClient.CreateRegistryEntry(ctx, seed); err != nil {
				return err
			}
		}
		return nil
	})
	assert.Nil(err)

	// 2 – Active entry and reservation count as taken, the inactive entry does not
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		codes, err := dbClient.ListTakenCodesWithPrefix(ctx, "RE-GS-")
		if err != nil {
			return err
		}
		assert.Equal([]string{"RE-GS-01", "RE-GS-02"}, codes)

		taken, err := dbClient.CodeTaken(ctx, "RE-GS-02")
		if err != nil {
			return err
		}
		assert.True(taken)

		taken, err = dbClient.CodeTaken(ctx, "RE-GS-03")
		if err != nil {
			return err
		}
		assert.False(taken)
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 3 – Cleanup with a past cutoff removes nothing
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		removed, err := dbClient.DeleteReservedRegistryEntries(
			ctx, time.Now().UTC().Add(-time.Hour),
		)
		if err != nil {
			return err
		}
		assert.Equal(int64(0), removed)
		return nil
	})
	assert.Nil(err)

	// 4 – Cleanup with a future cutoff removes only the placeholder
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		removed, err := dbClient.DeleteReservedRegistryEntries(
			ctx, time.Now().UTC().Add(time.Hour),
		)
		if err != nil {
			return err
		}
		assert.Equal(int64(1), removed)
		codes, err := dbClient.ListTakenCodesWithPrefix(ctx, "RE-GS-")
		if err != nil {
			return err
		}
		assert.Equal([]string{"RE-GS-01"}, codes)
		return nil
	})
	assert.Nil(err)
}

// TestDBRegistryStats verifies the grouped count queries backing the master
// list statistics.
func TestDBRegistryStats(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/doccontrol_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// -------------------------------------------------------------------------
	// 1 – Record a mixed set of entries
	seeds := []models.RegistryEntry{
		sampleRegistryEntry("RE-GS-01"),
		sampleRegistryEntry("RE-GS-02"),
		sampleRegistryEntry("MN-DP-01"),
		sampleRegistryEntry("PR-GP-01"),
	}
	seeds[1].Status = models.DocumentStatusPendingApproval
	seeds[2].Process = models.ProcessStrategicPlanning
	seeds[2].DocType = models.DocumentTypeManual
	seeds[3].Process = models.ProcessProduction
	seeds[3].DocType = models.DocumentTypeProcedure
	seeds[3].Active = false
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		for _, seed := range seeds {
			if _, err := dbClient.CreateRegistryEntry(ctx, seed); err != nil {
				return err
			}
		}
		return nil
	})
	assert.Nil(err)

	// 2 – Inactive entries are excluded from every aggregate
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		total, err := dbClient.CountRegistryEntries(ctx)
		if err != nil {
			return err
		}
		assert.Equal(int64(3), total)

		byStatus, err := dbClient.CountRegistryEntriesByStatus(ctx)
		if err != nil {
			return err
		}
		statusCounts := map[models.DocumentStatusENUMType]int64{}
		for _, c := range byStatus {
			statusCounts[c.Status] = c.Count
		}
		assert.Equal(int64(2), statusCounts[models.DocumentStatusApproved])
		assert.Equal(int64(1), statusCounts[models.DocumentStatusPendingApproval])

		byProcess, err := dbClient.CountRegistryEntriesByProcess(ctx)
		if err != nil {
			return err
		}
		assert.Len(byProcess, 2)

		byType, err := dbClient.CountRegistryEntriesByDocType(ctx)
		if err != nil {
			return err
		}
		assert.Len(byType, 2)
		return nil
	})
	assert.Nil(err)
}
