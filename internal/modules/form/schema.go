package form

import (
	"encoding/json"
	"strings"
)

// FieldKind is the small set of input types the signup form can render.
type FieldKind string

const (
	KindEmail    FieldKind = "email"
	KindText     FieldKind = "text"
	KindCheckbox FieldKind = "checkbox"
)

// DynamicField is the normalized view of one form-definition element.
type DynamicField struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
}

// FormFields is the result of introspecting a form definition.
type FormFields struct {
	Title      string         `json:"title"`
	TeaserHTML string         `json:"teaser_html,omitempty"`
	Fields     []DynamicField `json:"fields"`
}

// candidateArrays is the fixed preference order in which a step's field
// collection is looked up across schema versions.
var candidateArrays = []string{"fields", "elements", "blocks", "components", "children", "inputs"}

var teaserKeys = []string{"teaser_html", "teaser", "content_html", "content"}

// InferFields projects an externally-authored form definition onto renderable
// fields. The schema carries no shape guarantee, so everything here is
// best-effort: unrecognized elements are dropped and arbitrary or malformed
// input yields an empty field list rather than an error.
func InferFields(doc []byte) FormFields {
	attrs := decodeAttributes(doc)
	result := FormFields{Title: attrs.Name, Fields: []DynamicField{}}

	version, ok := preferredVersion(attrs.Versions)
	if !ok {
		return result
	}

	seen := make(map[string]bool)
	for _, step := range version.Steps {
		if result.TeaserHTML == "" {
			result.TeaserHTML = step.teaser()
		}
		for _, el := range step.elements() {
			field, ok := classify(el)
			if !ok || seen[field.Name] {
				continue
			}
			seen[field.Name] = true
			result.Fields = append(result.Fields, field)
		}
	}
	return result
}

// preferredVersion picks the version whose name contains "embed"
// (case-insensitive), else the last one, else none.
func preferredVersion(versions []formVersion) (formVersion, bool) {
	for _, v := range versions {
		if strings.Contains(strings.ToLower(v.Name), "embed") {
			return v, true
		}
	}
	if len(versions) > 0 {
		return versions[len(versions)-1], true
	}
	return formVersion{}, false
}

type formAttributes struct {
	Name     string        `json:"name"`
	Versions []formVersion `json:"versions"`
}

type formVersion struct {
	Name  string     `json:"name"`
	Steps []formStep `json:"steps"`
}

// formStep keeps each recognized property as raw JSON so a single
// off-shape key never poisons the whole decode.
type formStep struct {
	props map[string]json.RawMessage
}

func (s *formStep) UnmarshalJSON(data []byte) error {
	// A non-object step decodes to an empty one.
	var props map[string]json.RawMessage
	if err := json.Unmarshal(data, &props); err != nil {
		props = nil
	}
	s.props = props
	return nil
}

// elements returns the first non-empty array among the candidate property
// names, in fixed preference order.
func (s formStep) elements() []element {
	for _, key := range candidateArrays {
		raw, ok := s.props[key]
		if !ok {
			continue
		}
		var els []element
		if err := json.Unmarshal(raw, &els); err != nil || len(els) == 0 {
			continue
		}
		return els
	}
	return nil
}

func (s formStep) teaser() string {
	for _, key := range teaserKeys {
		raw, ok := s.props[key]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err == nil && v != "" {
			return v
		}
	}
	return ""
}

// element is the variant type every field-like object is decoded into: the
// recognized properties are pulled out once here, and nothing downstream
// probes raw JSON.
type element struct {
	typeHint    string
	kindHint    string
	component   string
	name        string
	id          string
	key         string
	label       string
	title       string
	placeholder string
	required    bool
}

func (e *element) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		// Non-object elements carry nothing classifiable.
		return nil
	}
	e.typeHint = stringProp(obj, "type")
	e.kindHint = stringProp(obj, "kind")
	e.component = stringProp(obj, "component")
	e.name = stringProp(obj, "name")
	e.id = stringProp(obj, "id")
	e.key = stringProp(obj, "key")
	e.label = stringProp(obj, "label")
	e.title = stringProp(obj, "title")
	e.placeholder = stringProp(obj, "placeholder")
	e.required = boolProp(obj, "required")
	return nil
}

func stringProp(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func boolProp(obj map[string]any, key string) bool {
	v, _ := obj[key].(bool)
	return v
}

// classify infers a renderable field from one element. Elements yielding no
// kind are dropped.
func classify(e element) (DynamicField, bool) {
	kind := kindFromHints(e.typeHint, e.kindHint, e.component)
	if kind == "" {
		kind = kindFromName(e.sourceName())
	}
	if kind == "" {
		return DynamicField{}, false
	}

	name := e.sourceName()
	if name == "" {
		name = string(kind)
	}
	key := e.key
	if key == "" {
		key = name
	}
	return DynamicField{
		Key:      key,
		Name:     name,
		Label:    e.displayLabel(name),
		Kind:     kind,
		Required: e.required || kind == KindEmail,
	}, true
}

func (e element) sourceName() string {
	for _, v := range []string{e.name, e.id, e.key} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (e element) displayLabel(name string) string {
	for _, v := range []string{e.label, e.title, e.placeholder} {
		if v != "" {
			return v
		}
	}
	return humanize(name)
}

// kindFromHints resolves an explicit type/kind/component signal, first match
// wins.
func kindFromHints(hints ...string) FieldKind {
	for _, hint := range hints {
		h := strings.ToLower(hint)
		switch {
		case h == "":
		case strings.Contains(h, "email"):
			return KindEmail
		case strings.Contains(h, "checkbox"), strings.Contains(h, "consent"):
			return KindCheckbox
		case strings.Contains(h, "text"), strings.Contains(h, "input"):
			return KindText
		}
	}
	return ""
}

// kindFromName falls back to the field's own name when no explicit signal
// resolved.
func kindFromName(name string) FieldKind {
	n := strings.ToLower(name)
	switch {
	case n == "":
		return ""
	case strings.Contains(n, "email"):
		return KindEmail
	case strings.Contains(n, "first"), strings.Contains(n, "last"), strings.Contains(n, "name"):
		return KindText
	case strings.Contains(n, "consent"), strings.Contains(n, "subscribe"):
		return KindCheckbox
	}
	return ""
}

func humanize(name string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// decodeAttributes accepts both the JSON:API envelope {data:{attributes:{}}}
// and a bare attributes object.
func decodeAttributes(doc []byte) formAttributes {
	var envelope struct {
		Data *struct {
			Attributes formAttributes `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(doc, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data.Attributes
	}
	var attrs formAttributes
	_ = json.Unmarshal(doc, &attrs)
	return attrs
}
