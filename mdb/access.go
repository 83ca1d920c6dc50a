package mdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Access encapsulates database connection.
type Access struct {
	client       *mongo.Client
	database     *mongo.Database
	config       Config
	disconnected bool
}

var (
	// DefaultURI is the default connection URI if not provided in Config.Options.
	DefaultURI = "mongodb://localhost:27017"

	// DefaultLogger is the default logger if not provided in Config.Logger.
	DefaultLogger = zerolog.New(os.Stderr).With().Timestamp().Str("pkg", "mdb").Logger()

	// DefaultConnectTimeout is the default timeout for the initial connect.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultDisconnectTimeout is the default timeout for the disconnect.
	DefaultDisconnectTimeout = 10 * time.Second

	// DefaultPingTimeout is the default timeout for the ping to make sure the connection is up.
	DefaultPingTimeout = 5 * time.Second

	// DefaultCollectionTimeout is the default timeout for collection provisioning.
	DefaultCollectionTimeout = 5 * time.Second

	// DefaultIndexTimeout is the default timeout for index access.
	DefaultIndexTimeout = 5 * time.Second
)

// Config items for Mongo DB connection.
type Config struct {
	// Base context for use in calls to Mongo.
	Ctx context.Context

	// Mongo options.
	// If nil the URI is taken from Credentials or DefaultURI.
	Options *options.ClientOptions

	// Optional credentials used to build the connection URI when Options is nil.
	Credentials *Credentials

	// Logger for information messages may be overridden.
	// Errors should bubble up and be handled by client code.
	Logger *zerolog.Logger

	Timeout
}

// Timeout settings for Mongo DB access.
type Timeout struct {
	// Timeout for the initial connect.
	Connect time.Duration

	// Timeout for the disconnect.
	Disconnect time.Duration

	// Timeout for the ping to make sure the connection is up.
	Ping time.Duration

	// Timeout for collection provisioning.
	Collection time.Duration

	// Timeout for indexes.
	Index time.Duration
}

// ErrNoDbName is returned by Connect() when the database name is empty.
var ErrNoDbName = errors.New("no database name")

// Connect to Mongo DB and return Access object.
// If the config is nil or incomplete missing items are set from the Default variables.
// Connection failures wrap ErrConnection or ErrAuthentication.
func Connect(dbName string, config *Config) (*Access, error) {
	if dbName == "" {
		return nil, ErrNoDbName
	}

	config, err := fixConfig(config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(config.Ctx, config.Timeout.Connect)
	defer cancel()

	client, err := mongo.Connect(ctx, config.Options)
	if err != nil {
		return nil, classify(fmt.Errorf("unable to connect mongo server: %w", err))
	}

	access := NewAccess(client, dbName, config)
	if err = access.Ping(); err != nil {
		// Release the client, the caller never sees this Access.
		_ = access.Disconnect()
		return nil, err
	}

	access.Info("Connected to MongoDB database " + access.database.Name())

	return access, nil
}

// ConnectOrPanic connects to Mongo DB and returns Access object or panics on error.
func ConnectOrPanic(dbName string, config *Config) *Access {
	access, err := Connect(dbName, config)
	if err != nil {
		panic(err)
	}

	return access
}

// NewAccess wraps an already connected client.
// No ping is done, use Connect() for the full connection sequence.
func NewAccess(client *mongo.Client, dbName string, config *Config) *Access {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.Options == nil {
		// The client is already built, options only matter to fixConfig.
		cfg.Options = options.Client()
	}
	fixed, _ := fixConfig(&cfg)
	return &Access{
		client:   client,
		database: client.Database(dbName),
		config:   *fixed,
	}
}

// Disconnect Mongo DB client.
// Provided for use in defer statements.
// Safe to call more than once and on a nil Access.
func (a *Access) Disconnect() error {
	if a == nil || a.client == nil || a.disconnected {
		return nil
	}

	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Disconnect)
	defer cancel()
	a.disconnected = true
	if err := a.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("unable to disconnect mongo server: %w", err)
	}

	a.Info("Disconnected from MongoDB database " + a.database.Name())
	return nil
}

// DisconnectOrPanic disconnects the Mongo DB client or panics on error.
// Provided for use in defer statements.
func (a *Access) DisconnectOrPanic() {
	if err := a.Disconnect(); err != nil {
		panic(err)
	}
}

// Client returns the Mongo client object.
func (a *Access) Client() *mongo.Client {
	return a.client
}

// Context returns the base context for the object.
func (a *Access) Context() context.Context {
	return a.config.Ctx
}

// ContextWithTimeout returns the base context for the object with the specified timeout.
func (a *Access) ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.config.Ctx, timeout)
}

// Database returns the Mongo database object.
func (a *Access) Database() *mongo.Database {
	return a.database
}

// Ping executes a ping against the Mongo server.
// This is separated from Connect() so that it can be overridden if necessary.
func (a *Access) Ping() error {
	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Ping)
	defer cancel()
	err := a.client.Ping(ctx, readpref.Primary())
	if err != nil {
		return classify(fmt.Errorf("unable to ping mongo server: %w", err))
	}

	return nil
}

// Logger returns the logger configured for this object.
func (a *Access) Logger() *zerolog.Logger {
	return a.config.Logger
}

// Info logs a simple message at info level.
// This is used for a few calls within the Access code.
func (a *Access) Info(msg string) {
	a.config.Logger.Info().Msg(msg)
}

func fixConfig(config *Config) (*Config, error) {
	if config == nil {
		config = &Config{}
	}

	if config.Ctx == nil {
		config.Ctx = context.Background()
	}

	if config.Options == nil {
		uri := DefaultURI
		if config.Credentials != nil {
			var err error
			if uri, err = config.Credentials.URI(); err != nil {
				return nil, fmt.Errorf("connection URI: %w", err)
			}
		}
		config.Options = options.Client().ApplyURI(uri)
	}

	if config.Logger == nil {
		config.Logger = &DefaultLogger
	}

	if config.Timeout.Connect == 0 {
		config.Timeout.Connect = DefaultConnectTimeout
	}

	if config.Timeout.Disconnect == 0 {
		config.Timeout.Disconnect = DefaultDisconnectTimeout
	}

	if config.Timeout.Ping == 0 {
		config.Timeout.Ping = DefaultPingTimeout
	}

	if config.Timeout.Collection == 0 {
		config.Timeout.Collection = DefaultCollectionTimeout
	}

	if config.Timeout.Index == 0 {
		config.Timeout.Index = DefaultIndexTimeout
	}

	return config, nil
}

////////////////////////////////////////////////////////////////////////////////

var errMissingCollectionName = errors.New("no collection name argument")

// CollectionExists checks to see if a specific collection already exists.
func (a *Access) CollectionExists(name string) (bool, error) {
	if name == "" {
		return false, errMissingCollectionName
	}

	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Collection)
	defer cancel()
	names, err := a.database.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, fmt.Errorf("getting collection names: %w", err)
	}

	for _, collName := range names {
		if collName == name {
			return true, nil
		}
	}

	return false, nil
}

// CollectionFinisher provides a way to add special processing when creating a collection.
type CollectionFinisher func(access *Access, collection *Collection) error

// Collection acquires the named collection, creating it if necessary.
// The validator JSON and finishers are only applied when the collection is created.
func (a *Access) Collection(collectionName string, validatorJSON string, finishers ...CollectionFinisher) (*Collection, error) {
	if collectionName == "" {
		return nil, errMissingCollectionName
	}

	if exists, err := a.CollectionExists(collectionName); err != nil {
		return nil, fmt.Errorf("does collection '%s' exist: %w", collectionName, err)
	} else if exists {
		// Collection already exists, just return it.
		return a.wrapCollection(collectionName), nil
	}

	// Add option for validator JSON if it is provided.
	opts := make([]*options.CreateCollectionOptions, 0)
	if validatorJSON != "" {
		var validator interface{}
		if err := bson.UnmarshalExtJSON([]byte(validatorJSON), false, &validator); err != nil {
			return nil, fmt.Errorf("unmarshal validator for collection: %w", err)
		}
		opts = append(opts, options.CreateCollection().SetValidator(validator))
	}

	// Create collection.
	createCtx, cancel := a.ContextWithTimeout(a.config.Timeout.Collection)
	defer cancel()
	err := a.database.CreateCollection(createCtx, collectionName, opts...)
	if err != nil {
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Name != "NamespaceExists" {
			return nil, fmt.Errorf("create collection: %w", err)
		}
	}
	collection := a.wrapCollection(collectionName)
	a.Info("Created collection " + collection.Name())

	// Run finishers on the collection.
	for i, finisher := range finishers {
		if err = finisher(a, collection); err != nil {
			return nil, fmt.Errorf("collection finisher #%d: %w", i, err)
		}
	}

	return collection, nil
}

// UseCollection returns the named collection without checking for or creating it.
// The server creates it on first write.
func (a *Access) UseCollection(collectionName string) (*Collection, error) {
	if collectionName == "" {
		return nil, errMissingCollectionName
	}
	return a.wrapCollection(collectionName), nil
}

func (a *Access) wrapCollection(collectionName string) *Collection {
	return &Collection{
		Access:     a,
		Collection: a.database.Collection(collectionName),
	}
}
