package storage

import "strings"

// Policy lists the fields a record of a kind must carry.
type Policy struct {
	Kind     string
	Required []string
}

// Check returns a *ValidationError naming every required field that is
// missing, null or a blank string.
func (p Policy) Check(r Record) error {
	var missing []string
	for _, f := range p.Required {
		if !present(r[f]) {
			missing = append(missing, f)
		}
	}
	if len(missing) != 0 {
		return &ValidationError{Kind: p.Kind, Fields: missing, Payload: r.Clone()}
	}
	return nil
}

func present(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	}
	return true
}
