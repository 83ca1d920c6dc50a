package mdb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexDescription lists the keys of an ascending index.
type IndexDescription struct {
	unique bool
	keys   []string
}

// NewIndexDescription creates a new index description.
func NewIndexDescription(unique bool, keys ...string) *IndexDescription {
	return &IndexDescription{
		unique: unique,
		keys:   keys,
	}
}

// Name returns the index name Mongo generates for these keys.
func (id *IndexDescription) Name() string {
	name := ""
	for i, key := range id.keys {
		if i > 0 {
			name += "_"
		}
		name += key + "_1"
	}
	return name
}

func (id *IndexDescription) AsBSON() bson.D {
	asBSON := bson.D{}
	for _, key := range id.keys {
		asBSON = append(asBSON, bson.E{Key: key, Value: 1})
	}
	return asBSON
}

// Finisher returns a function that can be used as a CollectionFinisher for creating this index.
func (id *IndexDescription) Finisher() CollectionFinisher {
	return func(access *Access, collection *Collection) error {
		return access.Index(collection, id)
	}
}

// Index creates the described index on the collection.
// Creating an index that already exists with the same options is not an error.
func (a *Access) Index(collection *Collection, description *IndexDescription) error {
	if len(description.keys) == 0 {
		return fmt.Errorf("index on %s: no keys", collection.Name())
	}

	ctx, cancel := a.ContextWithTimeout(a.config.Timeout.Index)
	defer cancel()
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    description.AsBSON(),
		Options: options.Index().SetUnique(description.unique),
	})
	if err != nil {
		return fmt.Errorf("create index %s: %w", description.Name(), err)
	}

	a.Info("Created index " + description.Name() + " on collection " + collection.Name())

	return nil
}
