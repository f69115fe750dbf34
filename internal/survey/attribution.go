package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var payloadKeys = map[string]bool{
	"authors": true, "citation": true, "doi": true,
	"pmid": true, "license": true, "year": true,
}

// MarshalJSON encodes the payload as a compact object with sorted keys.
// Unknown keys from Extra are emitted alongside the known ones.
func (p AttributionPayload) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(p.Extra)+6)
	for k, v := range p.Extra {
		if !payloadKeys[k] {
			fields[k] = v
		}
	}

	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		fields[key] = raw
		return nil
	}

	if len(p.Authors) > 0 {
		if err := put("authors", p.Authors); err != nil {
			return nil, err
		}
	}
	for key, val := range map[string]string{
		"citation": p.Citation, "doi": p.DOI, "pmid": p.PMID, "license": p.License,
	} {
		if val == "" {
			continue
		}
		if err := put(key, val); err != nil {
			return nil, err
		}
	}
	if p.Year != 0 {
		if err := put("year", p.Year); err != nil {
			return nil, err
		}
	}

	// encoding/json sorts map keys, which gives the canonical key order
	return json.Marshal(fields)
}

// UnmarshalJSON decodes a payload object, keeping unknown keys verbatim
func (p *AttributionPayload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("payload must be an object")
	}

	out := AttributionPayload{}
	for key, raw := range fields {
		var err error
		switch key {
		case "authors":
			err = json.Unmarshal(raw, &out.Authors)
			if err == nil {
				for i, a := range out.Authors {
					if a.Name == "" {
						err = fmt.Errorf("author %d has no name", i+1)
						break
					}
				}
			}
		case "citation":
			err = json.Unmarshal(raw, &out.Citation)
		case "doi":
			err = json.Unmarshal(raw, &out.DOI)
		case "pmid":
			err = unmarshalStringOrNumber(raw, &out.PMID)
		case "license":
			err = json.Unmarshal(raw, &out.License)
		case "year":
			err = json.Unmarshal(raw, &out.Year)
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]json.RawMessage)
			}
			var compact bytes.Buffer
			if err = json.Compact(&compact, raw); err == nil {
				out.Extra[key] = json.RawMessage(compact.Bytes())
			}
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}

	*p = out
	return nil
}

// unmarshalStringOrNumber accepts identifiers that are sometimes written as numbers
func unmarshalStringOrNumber(raw json.RawMessage, dst *string) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*dst = s
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("expected string or number")
	}
	*dst = n.String()
	return nil
}
