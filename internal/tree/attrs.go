package tree

import (
	"encoding/json"
)

// Attribute names from the segmentation pipeline's JSON schema. These are
// defaults only; every reader takes the name as a parameter so callers
// with a different schema can override them.
const (
	// LevelAttr is the anatomical depth of a segment: 1 root/main
	// pulmonary artery, 2 mediastinal, 3 lobar, 4 segmental, >4
	// subsegmental.
	LevelAttr = "level"
	// SegmentsBelowAttr counts the anatomical subsegments distally
	// supplied by a segment.
	SegmentsBelowAttr = "segments_below"
	// SuccessorsAttr holds pre-flattened child-edge attribute snapshots.
	SuccessorsAttr = "successors"
)

// Float reads a numeric edge attribute. Missing or non-numeric values
// report ok=false.
func (e *Edge) Float(attr string) (float64, bool) {
	return toFloat(e.Attrs[attr])
}

// Int reads an integer edge attribute, defaulting to 0 when absent.
func (e *Edge) Int(attr string) int {
	f, ok := toFloat(e.Attrs[attr])
	if !ok {
		return 0
	}
	return int(f)
}

// Level returns the anatomical level of the edge, 0 when unset.
func (e *Edge) Level() int {
	return e.Int(LevelAttr)
}

// OwnDegree returns the edge's own obstruction degree under attr: the
// maximum of a per-slice fraction list, or the scalar itself. A missing
// measurement means no obstruction and yields 0.0 rather than an error.
func (e *Edge) OwnDegree(attr string) float64 {
	v, ok := e.Attrs[attr]
	if !ok {
		return 0.0
	}
	if list, ok := v.([]interface{}); ok {
		max, found := 0.0, false
		for _, item := range list {
			f, numeric := toFloat(item)
			if !numeric {
				continue
			}
			if !found || f > max {
				max, found = f, true
			}
		}
		return max
	}
	f, numeric := toFloat(v)
	if !numeric {
		return 0.0
	}
	return f
}

// Set writes a derived attribute value on the edge.
func (e *Edge) Set(attr string, value interface{}) {
	e.Attrs[attr] = value
}

// NestedSuccessors returns the pre-flattened child snapshots recorded
// under SuccessorsAttr, used by the subsegment-counting helper.
func (e *Edge) NestedSuccessors() []map[string]interface{} {
	return SuccessorAttrs(e.Attrs)
}

// SuccessorAttrs reads the nested successor snapshots out of a raw
// attribute map. Snapshots are plain maps, not Edges, so they carry
// their own successors recursively.
func SuccessorAttrs(attrs map[string]interface{}) []map[string]interface{} {
	raw, ok := attrs[SuccessorsAttr].([]interface{})
	if !ok {
		return nil
	}
	succs := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			succs = append(succs, m)
		}
	}
	return succs
}

// AttrInt reads an integer from a raw attribute map, 0 when absent.
func AttrInt(attrs map[string]interface{}, name string) int {
	f, ok := toFloat(attrs[name])
	if !ok {
		return 0
	}
	return int(f)
}

// toFloat coerces the numeric types that show up in decoded node-link
// JSON (json.Number when decoded with UseNumber, float64/int from
// programmatic construction).
func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
