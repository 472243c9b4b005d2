package assessment

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// RubricKind says how a scoring rubric should be rendered.
type RubricKind int

const (
	// RubricEmpty means there is nothing to show.
	RubricEmpty RubricKind = iota
	// RubricStructured carries Criteria and/or Points.
	RubricStructured
	// RubricGeneric carries arbitrary key/value pairs.
	RubricGeneric
	// RubricRaw is plain text.
	RubricRaw
)

// Entry is one name/value line of a rubric. Name may be empty for list
// values that had no key.
type Entry struct {
	Name  string
	Value string
}

func (e Entry) String() string {
	if e.Name == "" {
		return e.Value
	}
	return e.Name + ": " + e.Value
}

// Rubric is the parsed form of a scoring_rubric string.
type Rubric struct {
	Kind     RubricKind
	Criteria []Entry
	Points   []Entry
	Pairs    []Entry
	Text     string
}

// ParseRubric interprets raw as a rubric. Objects with a Criteria or Points
// key (any case) are structured, other objects are generic, and anything
// else is plain text. It never fails.
func ParseRubric(raw string) Rubric {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Rubric{Kind: RubricEmpty}
	}
	if !gjson.Valid(trimmed) {
		return Rubric{Kind: RubricRaw, Text: raw}
	}
	doc := gjson.Parse(trimmed)
	if !doc.IsObject() {
		if doc.Type == gjson.String {
			return Rubric{Kind: RubricRaw, Text: doc.String()}
		}
		return Rubric{Kind: RubricRaw, Text: raw}
	}

	var (
		criteria, points gjson.Result
		pairs            []Entry
	)
	doc.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		switch {
		case strings.EqualFold(name, "criteria") && !criteria.Exists():
			criteria = value
		case strings.EqualFold(name, "points") && !points.Exists():
			points = value
		default:
			pairs = append(pairs, Entry{Name: name, Value: stringify(value)})
		}
		return true
	})

	if criteria.Exists() || points.Exists() {
		return Rubric{
			Kind:     RubricStructured,
			Criteria: entries(criteria),
			Points:   entries(points),
		}
	}
	if len(pairs) == 0 {
		return Rubric{Kind: RubricEmpty}
	}
	return Rubric{Kind: RubricGeneric, Pairs: pairs}
}

// ListItems returns the bulleted lines: criteria for structured rubrics and
// every pair for generic ones.
func (r Rubric) ListItems() []string {
	var src []Entry
	switch r.Kind {
	case RubricStructured:
		src = r.Criteria
	case RubricGeneric:
		src = r.Pairs
	default:
		return nil
	}
	items := make([]string, 0, len(src))
	for _, e := range src {
		items = append(items, e.String())
	}
	return items
}

// Badges returns the point-scale labels of a structured rubric.
func (r Rubric) Badges() []string {
	if r.Kind != RubricStructured {
		return nil
	}
	badges := make([]string, 0, len(r.Points))
	for _, e := range r.Points {
		badges = append(badges, e.String())
	}
	return badges
}

func entries(value gjson.Result) []Entry {
	if !value.Exists() {
		return nil
	}
	var out []Entry
	switch {
	case value.IsObject():
		value.ForEach(func(key, v gjson.Result) bool {
			out = append(out, Entry{Name: key.String(), Value: stringify(v)})
			return true
		})
	case value.IsArray():
		value.ForEach(func(_, v gjson.Result) bool {
			out = append(out, arrayEntry(v))
			return true
		})
	default:
		if s := stringify(value); s != "" {
			out = append(out, Entry{Value: s})
		}
	}
	return out
}

// arrayEntry reads list elements shaped like {"name": ..., "description": ...}
// and falls back to the stringified element.
func arrayEntry(v gjson.Result) Entry {
	if !v.IsObject() {
		return Entry{Value: stringify(v)}
	}
	name := firstOf(v, "name", "criterion", "label", "title")
	value := firstOf(v, "description", "desc", "points", "value")
	if name == "" && value == "" {
		return Entry{Value: stringify(v)}
	}
	return Entry{Name: name, Value: value}
}

func firstOf(obj gjson.Result, keys ...string) string {
	var found string
	for _, want := range keys {
		obj.ForEach(func(key, v gjson.Result) bool {
			if strings.EqualFold(key.String(), want) {
				found = stringify(v)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func stringify(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Null:
		return "null"
	case gjson.JSON:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
			return v.Raw
		}
		return buf.String()
	default:
		return v.Raw
	}
}
