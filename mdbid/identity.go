package mdbid

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field is the name of the database-assigned identifier field.
const Field = "_id"

// Of returns the identifier of a document, if it has one.
func Of(document bson.M) (interface{}, bool) {
	id, found := document[Field]
	return id, found && id != nil
}

// String formats an identifier for logging.
// ObjectIDs are shown as hex, anything else with %v.
func String(id interface{}) string {
	switch typed := id.(type) {
	case nil:
		return "<none>"
	case primitive.ObjectID:
		return typed.Hex()
	case *primitive.ObjectID:
		if typed == nil {
			return "<none>"
		}
		return typed.Hex()
	default:
		return fmt.Sprintf("%v", id)
	}
}

// Filter returns a Mongo filter object for the specified identifier.
func Filter(id interface{}) bson.D {
	return bson.D{{Key: Field, Value: id}}
}

// Without returns a shallow copy of the document minus its identifier.
// Useful for comparing a stored document with the one that was inserted.
func Without(document bson.M) bson.M {
	stripped := make(bson.M, len(document))
	for key, value := range document {
		if key != Field {
			stripped[key] = value
		}
	}
	return stripped
}
