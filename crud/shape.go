package crud

import (
	"errors"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	errNotMapping  = errors.New("not a mapping")
	errEmptyUpdate = errors.New("empty update")
	errMixedUpdate = errors.New("update mixes operators and plain fields")
)

// mappingKeys returns the top level keys of a mapping-shaped value.
// The second return is false for anything that is not a mapping,
// including a nil interface.
func mappingKeys(value interface{}) ([]string, bool) {
	switch typed := value.(type) {
	case nil:
		return nil, false
	case bson.M:
		return mapKeys(typed), true
	case map[string]interface{}:
		return mapKeys(typed), true
	case bson.D:
		keys := make([]string, 0, len(typed))
		for _, elem := range typed {
			keys = append(keys, elem.Key)
		}
		return keys, true
	}

	// Other maps keyed by some string type, e.g. map[string]string.
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	return keys, true
}

func mapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	return keys
}

var orderedType = reflect.TypeOf(bson.D{})

// isNilMap is true for a typed nil map or nil bson.D, which the driver would encode as null.
func isNilMap(value interface{}) bool {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map && (!rv.IsValid() || rv.Type() != orderedType) {
		return false
	}
	return rv.IsNil()
}

// filterFor returns a query value suitable for the driver.
// A nil mapping means "match all".
func filterFor(query interface{}) interface{} {
	if isNilMap(query) {
		return bson.D{}
	}
	return query
}

// operatorsFor turns an update spec into update operator expressions.
// Plain field assignments are wrapped in $set,
// specs made entirely of operators are passed through.
func operatorsFor(spec interface{}) (interface{}, error) {
	keys, ok := mappingKeys(spec)
	if !ok {
		return nil, errNotMapping
	}
	if len(keys) == 0 {
		return nil, errEmptyUpdate
	}

	operators := 0
	for _, key := range keys {
		if strings.HasPrefix(key, "$") {
			operators++
		}
	}

	switch operators {
	case 0:
		return bson.M{"$set": spec}, nil
	case len(keys):
		return spec, nil
	default:
		return nil, errMixedUpdate
	}
}
