package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
	"github.com/sigqms/doccontrol/db"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func prepareServicesTestDB(t *testing.T) db.Client {
	assert := assert.New(t)

	// Create a unique temporary DB file for this test
	testDB := fmt.Sprintf("/tmp/doccontrol_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	client, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(client.RunSQLInTransaction(context.Background(), db.DefineTables))

	return client
}
