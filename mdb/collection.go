package mdb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection wraps a Mongo collection with error-returning CRUD primitives
// over schema-less documents.
type Collection struct {
	*Access
	*mongo.Collection
}

// ConnectCollection creates a new collection object with the specified collection definition.
func ConnectCollection(access *Access, definition *CollectionDefinition) (*Collection, error) {
	collection := &Collection{}
	if err := access.CollectionConnect(collection, definition); err != nil {
		return nil, fmt.Errorf("connecting collection: %w", err)
	}
	return collection, nil
}

// ContextWithTimeout returns the base context with the collection provisioning timeout.
func (c *Collection) ContextWithTimeout() (context.Context, context.CancelFunc) {
	return c.Access.ContextWithTimeout(c.Access.config.Timeout.Collection)
}

// Count documents in collection matching filter.
func (c *Collection) Count(filter interface{}) (int64, error) {
	if filter == nil {
		filter = NoFilter()
	}
	count, err := c.CountDocuments(c.Context(), filter)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}

	return count, nil
}

// Create document in DB, returning the identifier assigned to it.
// An unacknowledged write returns a nil identifier and an error matching IsUnacknowledged().
func (c *Collection) Create(document interface{}) (interface{}, error) {
	result, err := c.InsertOne(c.Context(), document)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	return result.InsertedID, nil
}

// Read all documents matching the filter.
// The whole result set is decoded before returning.
func (c *Collection) Read(filter interface{}) ([]bson.M, error) {
	if filter == nil {
		filter = NoFilter()
	}

	ctx := c.Context()
	cursor, err := c.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}

	documents := make([]bson.M, 0)
	if err = cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}

	return documents, nil
}

// Update documents referenced by filter by applying update operator expressions.
// If multiple is false and the filter matches more than one document Mongo will choose one to update.
// Returns the number of documents actually modified.
func (c *Collection) Update(filter, operators interface{}, multiple bool) (int64, error) {
	var result *mongo.UpdateResult
	var err error
	if multiple {
		result, err = c.UpdateMany(c.Context(), filter, operators)
	} else {
		result, err = c.UpdateOne(c.Context(), filter, operators)
	}
	if err != nil {
		return 0, fmt.Errorf("update documents: %w", err)
	}

	return result.ModifiedCount, nil
}

// Delete documents referenced by filter.
// If multiple is false at most one document is removed.
// Returns the number of documents deleted.
func (c *Collection) Delete(filter interface{}, multiple bool) (int64, error) {
	var result *mongo.DeleteResult
	var err error
	if multiple {
		result, err = c.DeleteMany(c.Context(), filter)
	} else {
		result, err = c.DeleteOne(c.Context(), filter)
	}
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}

	return result.DeletedCount, nil
}

// DeleteAll documents from this collection.
func (c *Collection) DeleteAll() error {
	_, err := c.DeleteMany(c.Context(), NoFilter())
	if err != nil {
		return fmt.Errorf("delete all: %w", err)
	}
	return nil
}

// Drop collection.
func (c *Collection) Drop() error {
	ctx, cancelFn := c.ContextWithTimeout()
	defer cancelFn()
	return c.Collection.Drop(ctx)
}

var errNilCollection = errors.New("nil collection")

// Valid checks that the collection is usable.
func (c *Collection) Valid() error {
	if c == nil || c.Access == nil || c.Collection == nil {
		return errNilCollection
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////

// NoFilter returns an empty bson.D object for use as an empty filter.
func NoFilter() bson.D {
	return bson.D{}
}
