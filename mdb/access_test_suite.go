package mdb

import (
	"github.com/stretchr/testify/suite"
)

// AccessTestDBname is the database used by suites that hit a live server.
// It is dropped on teardown.
const AccessTestDBname = "db-test"

// AccessTestSuite wraps connect/disconnect for tests that need a live Mongo server.
// The server is taken from DefaultURI unless SetupSuiteConfig is given other options.
type AccessTestSuite struct {
	suite.Suite
	access *Access
}

func (suite *AccessTestSuite) Access() *Access {
	return suite.access
}

func (suite *AccessTestSuite) SetupSuite() {
	suite.SetupSuiteConfig(nil)
}

func (suite *AccessTestSuite) SetupSuiteConfig(config *Config) {
	var err error
	suite.access, err = Connect(AccessTestDBname, config)
	suite.Require().NoError(err, "connect to mongo")
	suite.access.Info("Suite setup")
}

func (suite *AccessTestSuite) TearDownSuite() {
	suite.access.Info("Suite teardown")
	suite.NoError(suite.access.Database().Drop(suite.access.Context()), "drop test database")
	suite.NoError(suite.access.Disconnect(), "disconnect from mongo")
}

// ConnectCollection connects to the specified collection and adds any provided indexes
// as necessary in a SetupSuite() with test checks so that any errors blow up the test.
// The collection is emptied before it is returned.
func (suite *AccessTestSuite) ConnectCollection(
	definition *CollectionDefinition, indexDescriptions ...*IndexDescription) *Collection {
	collection, err := ConnectCollection(suite.access, definition)
	suite.Require().NoError(err)
	suite.NotNil(collection)
	suite.Require().NoError(collection.DeleteAll())
	for _, indexDescription := range indexDescriptions {
		suite.Require().NoError(suite.access.Index(collection, indexDescription))
	}
	return collection
}
