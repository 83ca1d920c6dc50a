// Package crud provides an Accessor for create, read, update and delete
// of schema-less documents in a single Mongo collection.
//
// Accessor calls never return errors. Invalid input is rejected without
// contacting the server and failures are logged, so callers only see
// false, an empty slice or zero. An Observer can be attached to tell
// these cases apart.
//
// The Scenario type runs the fixed create, read, update, read, delete, read
// check used by the crudsmoke command.
package crud
