package store

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/bobg/bzz"
)

// String gets a required string parameter from a store configuration.
func String(conf map[string]interface{}, key string) (string, error) {
	s, ok := conf[key].(string)
	if !ok {
		return "", errors.Errorf(`missing "%s" parameter`, key)
	}
	return s, nil
}

// Int gets a required integer parameter from a store configuration.
// Configuration decoded from JSON holds numbers as float64,
// and from environment variables as strings;
// both are accepted.
func Int(conf map[string]interface{}, key string) (int, error) {
	switch v := conf[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		return n, errors.Wrapf(err, `parsing "%s" parameter`, key)
	case nil:
		return 0, errors.Errorf(`missing "%s" parameter`, key)
	default:
		return 0, errors.Errorf(`"%s" parameter has type %T`, key, v)
	}
}

// Nested creates the store described by the configuration map conf[key],
// whose "type" entry names a registered store type.
func Nested(ctx context.Context, conf map[string]interface{}, key string) (bzz.Store, error) {
	nested, ok := conf[key].(map[string]interface{})
	if !ok {
		return nil, errors.Errorf(`missing "%s" parameter`, key)
	}
	nestedType, ok := nested["type"].(string)
	if !ok {
		return nil, errors.Errorf(`"%s" parameter missing "type"`, key)
	}
	s, err := Create(ctx, nestedType, nested)
	return s, errors.Wrapf(err, "creating %s store", key)
}

// NestedList creates the stores described by the list of configuration maps conf[key].
// A missing key yields no stores.
func NestedList(ctx context.Context, conf map[string]interface{}, key string) ([]bzz.Store, error) {
	var items []map[string]interface{}
	switch v := conf[key].(type) {
	case nil:
		return nil, nil
	case []map[string]interface{}:
		items = v
	case []interface{}:
		for i, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, errors.Errorf(`"%s" item %d has type %T`, key, i, item)
			}
			items = append(items, m)
		}
	default:
		return nil, errors.Errorf(`"%s" parameter has type %T`, key, v)
	}

	var result []bzz.Store
	for i, nested := range items {
		nestedType, ok := nested["type"].(string)
		if !ok {
			return nil, errors.Errorf(`"%s" item %d missing "type"`, key, i)
		}
		s, err := Create(ctx, nestedType, nested)
		if err != nil {
			return nil, errors.Wrapf(err, "creating %s store %d", key, i)
		}
		result = append(result, s)
	}
	return result, nil
}
