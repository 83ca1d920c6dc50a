package crud

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/BrianaLong/CS340---Client-Server-Development/mdb"
)

var quiet = zerolog.Nop()

func newMockAccessor(mt *mtest.T, opts ...Option) *Accessor {
	access := mdb.NewAccess(mt.Client, mt.DB.Name(), &mdb.Config{Logger: &quiet})
	return New(&mdb.Collection{Access: access, Collection: mt.Coll}, opts...)
}

func namespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + mt.Coll.Name()
}

// recorder is an Observer that keeps every observation.
type recorder struct {
	ops      []Operation
	outcomes []Outcome
	counts   []int64
}

func (r *recorder) Observe(op Operation, outcome Outcome, count int64) {
	r.ops = append(r.ops, op)
	r.outcomes = append(r.outcomes, outcome)
	r.counts = append(r.counts, count)
}

var nonMappings = map[string]interface{}{
	"nil":    nil,
	"string": "Name=Sam",
	"int":    42,
	"slice":  []string{"Name", "Sam"},
	"struct": struct{ Name string }{Name: "Sam"},
	"intMap": map[int]string{1: "Sam"},
}

func TestNonMappingInputsSkipStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	for name, input := range nonMappings {
		input := input
		mt.Run(name, func(mt *mtest.T) {
			rec := &recorder{}
			accessor := newMockAccessor(mt, WithObserver(rec))
			assert.False(mt, accessor.Create(input))
			assert.Equal(mt, int64(0), accessor.Update(input, Document{"Age": 5}, false))
			assert.Equal(mt, int64(0), accessor.Update(Document{"Name": "Sam"}, input, true))
			assert.Equal(mt, int64(0), accessor.Delete(input, true))
			if input != nil {
				// A nil query is "match all" for Read.
				found := accessor.Read(input)
				assert.NotNil(mt, found)
				assert.Empty(mt, found)
			}
			assert.Nil(mt, mt.GetStartedEvent(), "store contacted")
			for _, outcome := range rec.outcomes {
				assert.Equal(mt, OutcomeInvalid, outcome)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		var buf bytes.Buffer
		rec := &recorder{}
		accessor := newMockAccessor(mt, WithLogger(zerolog.New(&buf)), WithObserver(rec))
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.True(mt, accessor.Create(Document{"Name": "Sam", "Age": 3}))
		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "insert", evt.CommandName)
		assert.Contains(mt, buf.String(), "Document inserted")
		assert.Contains(mt, buf.String(), `"id":"`)
		assert.Equal(mt, []Outcome{OutcomeOK}, rec.outcomes)
		assert.Equal(mt, []int64{1}, rec.counts)
	})

	mt.Run("ordered document", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.True(mt, accessor.Create(bson.D{{Key: "Name", Value: "Sam"}}))
	})

	mt.Run("string map", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.True(mt, accessor.Create(map[string]string{"Name": "Sam"}))
	})

	mt.Run("nil map", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.True(mt, accessor.Create(Document(nil)))
	})

	mt.Run("nil ordered document", func(mt *mtest.T) {
		rec := &recorder{}
		accessor := newMockAccessor(mt, WithObserver(rec))
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.True(mt, accessor.Create(bson.D(nil)))
		assert.Equal(mt, []Outcome{OutcomeOK}, rec.outcomes)
	})

	mt.Run("unacknowledged", func(mt *mtest.T) {
		rec := &recorder{}
		unacknowledged, err := mt.Coll.Clone(options.Collection().SetWriteConcern(writeconcern.Unacknowledged()))
		require.NoError(mt, err)
		access := mdb.NewAccess(mt.Client, mt.DB.Name(), &mdb.Config{Logger: &quiet})
		accessor := New(&mdb.Collection{Access: access, Collection: unacknowledged}, WithObserver(rec))
		assert.False(mt, accessor.Create(Document{"Name": "Sam"}))
		assert.Equal(mt, []Outcome{OutcomeUnacknowledged}, rec.outcomes)
		assert.Equal(mt, []int64{0}, rec.counts)
	})

	mt.Run("duplicate", func(mt *mtest.T) {
		var buf bytes.Buffer
		rec := &recorder{}
		accessor := newMockAccessor(mt, WithLogger(zerolog.New(&buf)), WithObserver(rec))
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		assert.False(mt, accessor.Create(Document{"_id": 1, "Name": "Sam"}))
		assert.Contains(mt, buf.String(), "duplicate key error")
		assert.Equal(mt, []Outcome{OutcomeError}, rec.outcomes)
	})
}

func TestRead(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("query", func(mt *mtest.T) {
		rec := &recorder{}
		accessor := newMockAccessor(mt, WithObserver(rec))
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: oid}, {Key: "Name", Value: "Sam"}, {Key: "Age", Value: int32(3)}}))
		found := accessor.Read(Document{"Name": "Sam"})
		require.Len(mt, found, 1)
		assert.Equal(mt, oid, found[0]["_id"])
		assert.Equal(mt, int32(3), found[0]["Age"])
		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		assert.Equal(mt, "Sam", evt.Command.Lookup("filter", "Name").StringValue())
		assert.Equal(mt, []int64{1}, rec.counts)
	})

	mt.Run("all", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "Name", Value: "Sam"}},
			bson.D{{Key: "Name", Value: "Max"}},
			bson.D{{Key: "Name", Value: "Bo"}}))
		found := accessor.Read(nil)
		assert.Len(mt, found, 3)
		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		filter, err := evt.Command.Lookup("filter").Document().Elements()
		require.NoError(mt, err)
		assert.Empty(mt, filter)
	})

	mt.Run("nil map matches all", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "Name", Value: "Sam"}}))
		assert.Len(mt, accessor.Read(Document(nil)), 1)
	})

	mt.Run("nil ordered query matches all", func(mt *mtest.T) {
		rec := &recorder{}
		accessor := newMockAccessor(mt, WithObserver(rec))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "Name", Value: "Sam"}}))
		assert.Len(mt, accessor.Read(bson.D(nil)), 1)
		assert.Equal(mt, []Outcome{OutcomeOK}, rec.outcomes)
		filter, err := mt.GetStartedEvent().Command.Lookup("filter").Document().Elements()
		require.NoError(mt, err)
		assert.Empty(mt, filter)
	})

	mt.Run("getMore", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, namespace(mt), mtest.FirstBatch, bson.D{{Key: "Name", Value: "Sam"}}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.NextBatch, bson.D{{Key: "Name", Value: "Max"}}))
		assert.Len(mt, accessor.Read(Document{}), 2)
	})

	mt.Run("error", func(mt *mtest.T) {
		rec := &recorder{}
		accessor := newMockAccessor(mt, WithObserver(rec))
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "unknown operator: $bogus",
		}))
		found := accessor.Read(Document{"Age": Document{"$bogus": 1}})
		assert.NotNil(mt, found)
		assert.Empty(mt, found)
		assert.Equal(mt, []Outcome{OutcomeError}, rec.outcomes)
	})
}

func TestUpdate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("one", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		assert.Equal(mt, int64(1), accessor.Update(Document{"Name": "Sam"}, Document{"Age": 5}, false))
		update := firstStatement(mt, "update", "updates")
		// The driver omits multi when it is false.
		if multi, err := update.LookupErr("multi"); err == nil {
			assert.False(mt, multi.Boolean())
		}
		// Plain fields are wrapped in $set.
		assert.Equal(mt, int32(5), update.Lookup("u", "$set", "Age").Int32())
	})

	mt.Run("many", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 3}, bson.E{Key: "nModified", Value: 3}))
		assert.Equal(mt, int64(3), accessor.Update(Document{"Breed": "Dalmation"}, Document{"Age": 5}, true))
		update := firstStatement(mt, "update", "updates")
		assert.True(mt, update.Lookup("multi").Boolean())
	})

	mt.Run("operators passed through", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		assert.Equal(mt, int64(1), accessor.Update(Document{"Name": "Sam"}, Document{"$inc": Document{"Age": 1}}, false))
		update := firstStatement(mt, "update", "updates")
		assert.Equal(mt, int32(1), update.Lookup("u", "$inc", "Age").Int32())
	})

	mt.Run("matched but not modified", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 2}, bson.E{Key: "nModified", Value: 0}))
		assert.Equal(mt, int64(0), accessor.Update(Document{"Name": "Sam"}, Document{"Age": 5}, true))
	})

	mt.Run("invalid spec", func(mt *mtest.T) {
		rec := &recorder{}
		accessor := newMockAccessor(mt, WithObserver(rec))
		assert.Equal(mt, int64(0), accessor.Update(Document{"Name": "Sam"}, Document{}, false))
		assert.Equal(mt, int64(0), accessor.Update(Document{"Name": "Sam"},
			Document{"$set": Document{"Age": 5}, "Color": "Black"}, false))
		assert.Nil(mt, mt.GetStartedEvent(), "store contacted")
		assert.Equal(mt, []Outcome{OutcomeInvalid, OutcomeInvalid}, rec.outcomes)
	})

	mt.Run("error", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "Document failed validation",
		}))
		assert.Equal(mt, int64(0), accessor.Update(Document{"Name": "Sam"}, Document{"Age": "five"}, false))
	})
}

func TestDelete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("one", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.Equal(mt, int64(1), accessor.Delete(Document{"Name": "Sam"}, false))
		statement := firstStatement(mt, "delete", "deletes")
		assert.Equal(mt, int32(1), statement.Lookup("limit").Int32())
	})

	mt.Run("many", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 4}))
		assert.Equal(mt, int64(4), accessor.Delete(Document{"Breed": "Dalmation"}, true))
		statement := firstStatement(mt, "delete", "deletes")
		assert.Equal(mt, int32(0), statement.Lookup("limit").Int32())
	})

	mt.Run("nil ordered query", func(mt *mtest.T) {
		rec := &recorder{}
		accessor := newMockAccessor(mt, WithObserver(rec))
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))
		assert.Equal(mt, int64(2), accessor.Delete(bson.D(nil), true))
		assert.Equal(mt, []Outcome{OutcomeOK}, rec.outcomes)
		statement := firstStatement(mt, "delete", "deletes")
		filter, err := statement.Lookup("q").Document().Elements()
		require.NoError(mt, err)
		assert.Empty(mt, filter)
	})

	mt.Run("none matched", func(mt *mtest.T) {
		accessor := newMockAccessor(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.Equal(mt, int64(0), accessor.Delete(Document{"Name": "Nobody"}, false))
	})

	mt.Run("error", func(mt *mtest.T) {
		rec := &recorder{}
		accessor := newMockAccessor(mt, WithObserver(rec))
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized on AAC to execute command",
		}))
		assert.Equal(mt, int64(0), accessor.Delete(Document{"Name": "Sam"}, false))
		assert.Equal(mt, []Outcome{OutcomeError}, rec.outcomes)
	})
}

func TestClose(t *testing.T) {
	var nilAccessor *Accessor
	assert.NoError(t, nilAccessor.Close())

	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("not owned", func(mt *mtest.T) {
		rec := &recorder{}
		accessor := newMockAccessor(mt, WithObserver(rec))
		assert.NoError(mt, accessor.Close())
		assert.NoError(mt, accessor.Close())
		// Closed accessors return neutral values without touching the store.
		assert.False(mt, accessor.Create(Document{"Name": "Sam"}))
		assert.Empty(mt, accessor.Read(nil))
		assert.Equal(mt, int64(0), accessor.Update(Document{"Name": "Sam"}, Document{"Age": 5}, false))
		assert.Equal(mt, int64(0), accessor.Delete(Document{"Name": "Sam"}, false))
		assert.Nil(mt, mt.GetStartedEvent(), "store contacted")
		assert.Equal(mt, []Outcome{OutcomeError, OutcomeError, OutcomeError, OutcomeError}, rec.outcomes)
	})
}

func TestNewWithoutCollection(t *testing.T) {
	accessor := New(nil)
	assert.False(t, accessor.Create(Document{"Name": "Sam"}))
	assert.Empty(t, accessor.Read(nil))
	assert.NoError(t, accessor.Close())
}

func TestConnectErrors(t *testing.T) {
	_, err := Connect(context.Background(), Settings{Database: "AAC"})
	assert.ErrorIs(t, err, errNoCollectionName)

	_, err = Connect(context.Background(), Settings{
		Credentials: mdb.Credentials{Host: "localhost", Port: 27017},
		Collection:  "animals",
	})
	assert.ErrorIs(t, err, mdb.ErrNoDbName)

	_, err = Connect(context.Background(), Settings{
		Database:   "AAC",
		Collection: "animals",
	})
	assert.Error(t, err, "no host")
}

func TestConnectUnreachable(t *testing.T) {
	accessor, err := Connect(context.Background(), Settings{
		Credentials: mdb.Credentials{User: "aacuser", Password: "secret", Host: "127.0.0.1", Port: 1},
		Database:    "AAC",
		Collection:  "animals",
		Timeout:     mdb.Timeout{Connect: time.Second, Ping: 250 * time.Millisecond},
		Logger:      &quiet,
	})
	require.Error(t, err)
	assert.Nil(t, accessor)
	assert.ErrorIs(t, err, mdb.ErrConnection)
	assert.NotContains(t, err.Error(), "secret")
	// Teardown of a never-built accessor is safe.
	assert.NoError(t, accessor.Close())
}

// firstStatement returns the first statement of a write command, e.g. updates[0].
func firstStatement(mt *mtest.T, command, field string) bson.Raw {
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt)
	require.Equal(mt, command, evt.CommandName)
	statements, err := evt.Command.Lookup(field).Array().Values()
	require.NoError(mt, err)
	require.NotEmpty(mt, statements)
	return statements[0].Document()
}
