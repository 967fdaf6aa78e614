package ctdf

import (
	"bytes"
	"encoding/json"
	"strconv"

	"golang.org/x/exp/maps"
)

// TrainPosition is a single vehicle record from the NS virtual train API.
// Only RitID is guaranteed, the upstream schema is open so every other typed field is
// optional and fields this struct does not know about are kept and written back out.
type TrainPosition struct {
	RitID                     string
	Lat                       *float64
	Lng                       *float64
	Snelheid                  *float64
	Richting                  *float64
	HorizontaleNauwkeurigheid *float64
	Type                      string
	Bron                      string

	fields map[string]json.RawMessage
}

func (t *TrainPosition) Location() (Location, bool) {
	if t.Lat == nil || t.Lng == nil {
		return Location{}, false
	}

	return NewPoint(*t.Lat, *t.Lng), true
}

func (t *TrainPosition) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*t = TrainPosition{fields: fields}

	if raw, ok := fields["ritId"]; ok {
		t.RitID = decodeIdentifier(raw)
	}

	// Mistyped optional fields are left unset, their raw value is still passed through
	decodeOptional(fields, "lat", &t.Lat)
	decodeOptional(fields, "lng", &t.Lng)
	decodeOptional(fields, "snelheid", &t.Snelheid)
	decodeOptional(fields, "richting", &t.Richting)
	decodeOptional(fields, "horizontaleNauwkeurigheid", &t.HorizontaleNauwkeurigheid)
	decodeOptional(fields, "type", &t.Type)
	decodeOptional(fields, "bron", &t.Bron)

	return nil
}

func (t TrainPosition) MarshalJSON() ([]byte, error) {
	fields := maps.Clone(t.fields)
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}

	if existing, ok := fields["ritId"]; !ok || decodeIdentifier(existing) != t.RitID {
		if err := setField(fields, "ritId", t.RitID); err != nil {
			return nil, err
		}
	}

	for key, value := range map[string]*float64{
		"lat":                       t.Lat,
		"lng":                       t.Lng,
		"snelheid":                  t.Snelheid,
		"richting":                  t.Richting,
		"horizontaleNauwkeurigheid": t.HorizontaleNauwkeurigheid,
	} {
		if value == nil {
			continue
		}

		var existing *float64
		decodeOptional(fields, key, &existing)
		if existing != nil && *existing == *value {
			continue
		}

		if err := setField(fields, key, *value); err != nil {
			return nil, err
		}
	}

	for key, value := range map[string]string{"type": t.Type, "bron": t.Bron} {
		var existing string
		decodeOptional(fields, key, &existing)
		if value == "" || existing == value {
			continue
		}

		if err := setField(fields, key, value); err != nil {
			return nil, err
		}
	}

	return json.Marshal(fields)
}

func setField(fields map[string]json.RawMessage, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	fields[key] = raw
	return nil
}

func decodeOptional[T any](fields map[string]json.RawMessage, key string, target *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}

	var value T
	if err := json.Unmarshal(raw, &value); err == nil {
		*target = value
	}
}

// decodeIdentifier reads an identifier sent as a JSON string, number or boolean.
// Objects and arrays give an empty identifier.
func decodeIdentifier(raw json.RawMessage) string {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Attributes returns the record as generic JSON values keyed by upstream field name
func (t TrainPosition) Attributes() (map[string]any, error) {
	encoded, err := t.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var attributes map[string]any
	if err := json.Unmarshal(encoded, &attributes); err != nil {
		return nil, err
	}

	return attributes, nil
}
