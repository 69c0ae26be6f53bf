package flatten

// Document is a record prepared for search: the original value plus its
// flattened fields. It is not modified after construction.
type Document struct {
	ID       string
	Position int
	Source   any
	Fields   *Fields
}

// FlattenForSearch flattens value and keeps the original alongside.
func FlattenForSearch(value any) *Document {
	return &Document{
		Source: value,
		Fields: Flatten(value, ""),
	}
}

// NewDocument flattens value into a Document with the given identity.
func NewDocument(id string, position int, value any) *Document {
	doc := FlattenForSearch(value)
	doc.ID = id
	doc.Position = position
	return doc
}

// Lookup resolves key against the flattened fields first, then against the
// original top-level properties.
func (d *Document) Lookup(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	if v, ok := d.Fields.Get(key); ok {
		return v, true
	}
	if obj, ok := d.Source.(*Object); ok && obj != nil {
		return obj.Get(key)
	}
	return nil, false
}

// Text returns the display text of a flattened field.
func (d *Document) Text(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.Fields.Get(key)
	if !ok {
		return "", false
	}
	return v.Text(), true
}
