package mdbid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOf(t *testing.T) {
	oid := primitive.NewObjectID()
	id, found := Of(bson.M{"_id": oid, "Name": "Sam"})
	assert.True(t, found)
	assert.Equal(t, oid, id)

	_, found = Of(bson.M{"Name": "Sam"})
	assert.False(t, found)

	_, found = Of(bson.M{"_id": nil})
	assert.False(t, found)
}

func TestString(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid.Hex(), String(oid))
	assert.Equal(t, oid.Hex(), String(&oid))
	assert.Equal(t, "<none>", String(nil))
	assert.Equal(t, "42", String(42))
	assert.Equal(t, "custom", String("custom"))
}

func TestFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, bson.D{{Key: "_id", Value: oid}}, Filter(oid))
}

func TestWithout(t *testing.T) {
	document := bson.M{"_id": primitive.NewObjectID(), "Name": "Sam", "Age": int32(3)}
	stripped := Without(document)
	assert.Equal(t, bson.M{"Name": "Sam", "Age": int32(3)}, stripped)
	// Original untouched.
	assert.Contains(t, document, "_id")
}
