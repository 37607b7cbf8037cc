package dispatch

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// ErrInvalidBatch is returned by DecodeRecords for input that is not a JSON
// array of objects.
var ErrInvalidBatch = errors.New("dispatch: batch must be a JSON array of objects")

// DecodeRecords parses a JSON array of {"type": ..., "value": ...} objects.
// Numbers decode as json.Number so integers keep their exact form. A null or
// missing "value" becomes nil and a missing "type" becomes "".
func DecodeRecords(data []byte) ([]Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Wrap(ErrInvalidBatch, "invalid json")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, ErrInvalidBatch
	}
	items := root.Array()
	records := make([]Record, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, errors.Wrapf(ErrInvalidBatch, "item %d is %s", i, item.Type)
		}
		rec := Record{}
		if t := item.Get("type"); t.Exists() && t.Type != gjson.Null {
			rec.Type = t.String()
		}
		v, err := decodeValue(item.Get("value"))
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		rec.Value = v
		records = append(records, rec)
	}
	return records, nil
}

func decodeValue(res gjson.Result) (any, error) {
	if !res.Exists() {
		return nil, nil
	}
	switch res.Type {
	case gjson.Null:
		return nil, nil
	case gjson.String:
		return res.String(), nil
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.Number:
		return json.Number(res.Raw), nil
	default:
		dec := json.NewDecoder(strings.NewReader(res.Raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, errors.Wrap(err, "decode value")
		}
		return v, nil
	}
}
