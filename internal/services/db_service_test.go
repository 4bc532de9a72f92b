package services_test

import (
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"github.com/stretchr/testify/suite"
)

type DBServiceTestSuite struct {
	suite.Suite
}

func (suite *DBServiceTestSuite) TestNewSqliteDBServiceInMemory() {
	db, err := services.NewSqliteDBService(":memory:")
	suite.Require().NoError(err)
	suite.NotNil(db)
	suite.NotNil(db.GetDB())
	defer db.Close()

	for _, model := range []interface{}{
		&models.Agreement{},
		&models.AgreementRevision{},
		&models.Event{},
		&models.AgreementArtifact{},
		&models.Payment{},
	} {
		suite.True(db.GetDB().Migrator().HasTable(model))
	}
}

func (suite *DBServiceTestSuite) TestNewSqliteDBServiceCreatesDirectory() {
	dbPath := filepath.Join(suite.T().TempDir(), "nested", "actionkeeper.db")
	db, err := services.NewSqliteDBService(dbPath)
	suite.Require().NoError(err)
	defer db.Close()
	suite.FileExists(dbPath)
}

func (suite *DBServiceTestSuite) TestNewPostgresDBServiceUnreachableHost() {
	_, err := services.NewPostgresDBService("host=127.0.0.1 port=1 user=nobody dbname=none sslmode=disable connect_timeout=1")
	suite.Error(err)
}

func TestDBServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DBServiceTestSuite))
}
