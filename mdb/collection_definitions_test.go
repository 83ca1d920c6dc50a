package mdb

import "github.com/BrianaLong/CS340---Client-Server-Development/test"

var (
	testCollection = &CollectionDefinition{
		Name: "test-collection",
	}
	testCollectionValidation = &CollectionDefinition{
		Name:           "test-collection-validation",
		ValidationJSON: test.AnimalValidatorJSON,
	}
)
