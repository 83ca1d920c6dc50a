package test

import (
	"go.mongodb.org/mongo-driver/bson"
)

// AnimalValidatorJSON requires the fields the smoke scenario relies on.
var AnimalValidatorJSON = `{
	"$jsonSchema": {
		"bsonType": "object",
		"required": ["Name", "Breed", "Age"],
		"properties": {
			"Name": {
				"bsonType": "string"
			},
			"Breed": {
				"bsonType": "string"
			},
			"Age": {
				"bsonType": "int"
			}
		}
	}
}`

////////////////////////////////////////////////////////////////////////////////

// Fresh copies are returned so tests can't leak changes into each other.

// Sam is the animal used by the smoke scenario.
func Sam() bson.M {
	return bson.M{
		"Name":    "Sam",
		"Breed":   "Dalmation",
		"Age":     3,
		"Color":   "White",
		"Outcome": "Adopted",
		"Date":    "2025-12-08",
	}
}

// Dalmations returns three animals sharing a breed, for multiple-match tests.
func Dalmations() []bson.M {
	return []bson.M{
		{"Name": "Pongo", "Breed": "Dalmation", "Age": 4, "Color": "White"},
		{"Name": "Perdita", "Breed": "Dalmation", "Age": 4, "Color": "White"},
		{"Name": "Lucky", "Breed": "Dalmation", "Age": 1, "Color": "White"},
	}
}

// Rex is an animal of another breed.
func Rex() bson.M {
	return bson.M{
		"Name":  "Rex",
		"Breed": "Beagle",
		"Age":   7,
		"Color": "Tricolor",
	}
}

// Invalid is missing fields required by AnimalValidatorJSON.
func Invalid() bson.M {
	return bson.M{
		"Name": "Nobody",
	}
}
