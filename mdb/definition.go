package mdb

import (
	"errors"
	"fmt"
)

// CollectionDefinition describes a collection to be acquired or created.
type CollectionDefinition struct {
	// Name of the collection, required.
	Name string

	// Optional JSON schema validator applied when the collection is created.
	ValidationJSON string

	// Optional finishers run when the collection is created.
	Finishers []CollectionFinisher
}

var errNoDefinition = errors.New("no collection definition")

// CollectionConnect fills in the collection object from the definition,
// creating the collection in the database if it doesn't exist yet.
func (a *Access) CollectionConnect(collection *Collection, definition *CollectionDefinition) error {
	if definition == nil {
		return errNoDefinition
	}

	connected, err := a.Collection(definition.Name, definition.ValidationJSON, definition.Finishers...)
	if err != nil {
		return fmt.Errorf("collection '%s': %w", definition.Name, err)
	}

	*collection = *connected
	return nil
}
