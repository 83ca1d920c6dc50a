package crud

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/BrianaLong/CS340---Client-Server-Development/mdb"
	"github.com/BrianaLong/CS340---Client-Server-Development/mdbid"
)

// Document is a schema-less record.
type Document = bson.M

// Accessor provides create/read/update/delete over one collection.
// Operations never return errors: failures are logged,
// reported to the Observer and turned into false, an empty slice or zero.
// Use the error-returning methods of mdb.Collection when the difference matters.
type Accessor struct {
	collection *mdb.Collection
	logger     zerolog.Logger
	observer   Observer
	owned      bool
	closed     bool
}

// Option configures an Accessor.
type Option func(accessor *Accessor)

// WithLogger sets the logger, the default is the collection's access logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(accessor *Accessor) {
		accessor.logger = logger
	}
}

// WithObserver sets an Observer to be notified of every call.
func WithObserver(observer Observer) Option {
	return func(accessor *Accessor) {
		if observer != nil {
			accessor.observer = observer
		}
	}
}

// Settings for connecting an Accessor.
type Settings struct {
	mdb.Credentials

	// Database and Collection names, both required.
	Database   string
	Collection string

	// Optional JSON schema validator and indexes applied if the collection is created.
	// When both are empty the collection is used as is without provisioning.
	ValidatorJSON string
	Indexes       []*mdb.IndexDescription

	// Optional overrides, zero values use mdb defaults.
	Timeout mdb.Timeout
	Logger  *zerolog.Logger
}

var errNoCollectionName = errors.New("no collection name")

// Connect to the server described by the settings and return an Accessor for the collection.
// The connection is checked with a ping before returning.
// Errors wrap mdb.ErrConnection or mdb.ErrAuthentication when the server is unreachable or rejects the login.
// The Accessor owns the connection and releases it on Close().
func Connect(ctx context.Context, settings Settings, opts ...Option) (*Accessor, error) {
	if settings.Collection == "" {
		return nil, errNoCollectionName
	}

	credentials := settings.Credentials
	access, err := mdb.Connect(settings.Database, &mdb.Config{
		Ctx:         ctx,
		Credentials: &credentials,
		Logger:      settings.Logger,
		Timeout:     settings.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", credentials.Redacted(), err)
	}

	var collection *mdb.Collection
	if settings.ValidatorJSON == "" && len(settings.Indexes) == 0 {
		collection, err = access.UseCollection(settings.Collection)
	} else {
		finishers := make([]mdb.CollectionFinisher, 0, len(settings.Indexes))
		for _, index := range settings.Indexes {
			finishers = append(finishers, index.Finisher())
		}
		collection, err = access.Collection(settings.Collection, settings.ValidatorJSON, finishers...)
	}
	if err != nil {
		_ = access.Disconnect()
		return nil, fmt.Errorf("acquire collection: %w", err)
	}

	accessor := New(collection, opts...)
	accessor.owned = true
	return accessor, nil
}

// New returns an Accessor for an already connected collection.
// The Accessor does not own the connection, Close() leaves it open.
func New(collection *mdb.Collection, opts ...Option) *Accessor {
	accessor := &Accessor{
		collection: collection,
		observer:   nopObserver{},
	}
	if collection.Valid() == nil {
		accessor.logger = collection.Logger().With().Str("collection", collection.Name()).Logger()
	} else {
		accessor.logger = zerolog.Nop()
	}
	for _, opt := range opts {
		opt(accessor)
	}
	return accessor
}

// Collection returns the underlying collection.
func (a *Accessor) Collection() *mdb.Collection {
	return a.collection
}

// Create inserts the document.
// Returns true if the store acknowledged the write.
// Anything that is not a mapping is rejected without contacting the store.
func (a *Accessor) Create(document interface{}) bool {
	if _, ok := mappingKeys(document); !ok {
		a.invalid(OpCreate, errNotMapping, "Invalid document format, document must be a mapping")
		return false
	}
	if err := a.usable(); err != nil {
		a.failed(OpCreate, err)
		return false
	}
	if isNilMap(document) {
		document = Document{}
	}

	id, err := a.collection.Create(document)
	if mdb.IsUnacknowledged(err) {
		a.logger.Warn().Msg("Insertion not acknowledged")
		a.observer.Observe(OpCreate, OutcomeUnacknowledged, 0)
		return false
	} else if err != nil {
		a.failed(OpCreate, err)
		return false
	}

	a.logger.Info().Str("id", mdbid.String(id)).Msg("Document inserted")
	a.observer.Observe(OpCreate, OutcomeOK, 1)
	return true
}

// Read returns all documents matching the query, or all documents if the query is nil.
// The result is never nil: errors and non-mapping queries return an empty slice.
func (a *Accessor) Read(query interface{}) []Document {
	if query == nil {
		a.logger.Debug().Msg("No query provided, retrieving all documents")
		query = mdb.NoFilter()
	} else if _, ok := mappingKeys(query); !ok {
		a.invalid(OpRead, errNotMapping, "Invalid query format, query must be a mapping")
		return []Document{}
	}
	if err := a.usable(); err != nil {
		a.failed(OpRead, err)
		return []Document{}
	}

	documents, err := a.collection.Read(filterFor(query))
	if err != nil {
		a.failed(OpRead, err)
		return []Document{}
	}

	a.logger.Info().Interface("query", query).Int("count", len(documents)).Msg("Documents retrieved")
	a.observer.Observe(OpRead, OutcomeOK, int64(len(documents)))
	return documents
}

// Update applies the update spec to one matching document, or all of them if multiple is true.
// A spec without $ operators is treated as fields to $set.
// Returns the number of documents modified, which may be less than the number matched.
func (a *Accessor) Update(query, update interface{}, multiple bool) int64 {
	if _, ok := mappingKeys(query); !ok {
		a.invalid(OpUpdate, errNotMapping, "Invalid query format, query must be a mapping")
		return 0
	}
	operators, err := operatorsFor(update)
	if err != nil {
		a.invalid(OpUpdate, err, "Invalid update format")
		return 0
	}
	if err := a.usable(); err != nil {
		a.failed(OpUpdate, err)
		return 0
	}

	modified, err := a.collection.Update(filterFor(query), operators, multiple)
	if err != nil {
		a.failed(OpUpdate, err)
		return 0
	}

	a.logger.Info().Bool("multiple", multiple).Int64("count", modified).Msg("Documents updated")
	a.observer.Observe(OpUpdate, OutcomeOK, modified)
	return modified
}

// Delete removes one matching document, or all of them if multiple is true.
// Returns the number of documents deleted.
func (a *Accessor) Delete(query interface{}, multiple bool) int64 {
	if _, ok := mappingKeys(query); !ok {
		a.invalid(OpDelete, errNotMapping, "Invalid query format, query must be a mapping")
		return 0
	}
	if err := a.usable(); err != nil {
		a.failed(OpDelete, err)
		return 0
	}

	deleted, err := a.collection.Delete(filterFor(query), multiple)
	if err != nil {
		a.failed(OpDelete, err)
		return 0
	}

	a.logger.Info().Bool("multiple", multiple).Int64("count", deleted).Msg("Documents deleted")
	a.observer.Observe(OpDelete, OutcomeOK, deleted)
	return deleted
}

// Close releases the connection if the Accessor owns it.
// Safe to call more than once, on a nil Accessor, and after a failed Connect().
func (a *Accessor) Close() error {
	if a == nil || a.closed {
		return nil
	}
	a.closed = true
	if !a.owned || a.collection == nil {
		return nil
	}
	if err := a.collection.Access.Disconnect(); err != nil {
		return fmt.Errorf("close accessor: %w", err)
	}
	return nil
}

var errClosed = errors.New("accessor closed")

func (a *Accessor) usable() error {
	if a.closed {
		return errClosed
	}
	return a.collection.Valid()
}

func (a *Accessor) invalid(op Operation, err error, msg string) {
	a.logger.Warn().Str("op", string(op)).Err(err).Msg(msg)
	a.observer.Observe(op, OutcomeInvalid, 0)
}

func (a *Accessor) failed(op Operation, err error) {
	a.logger.Error().Str("op", string(op)).Err(err).Msg("Operation failed")
	a.observer.Observe(op, OutcomeError, 0)
}
