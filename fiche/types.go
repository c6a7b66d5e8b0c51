package fiche

// FieldType enumerates the value kinds a field can take.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldBoolean  FieldType = "boolean"
	FieldSelect   FieldType = "select"
	FieldDate     FieldType = "date"
	FieldTextarea FieldType = "textarea"
)

// Field describes one form field.
type Field struct {
	ID       string
	Label    string
	Type     FieldType
	Options  []string
	Required bool
}

// RowTemplate is one schema-fixed row of a tabular section. The row set is
// part of the schema: instances never add, remove or relabel rows.
type RowTemplate struct {
	Localisation string
	Fields       []string
}

// Section is either a flat field section (Fields set) or a tabular
// row-template section (Rows set), never both.
type Section struct {
	ID     string
	Name   string
	Fields []Field
	Rows   []RowTemplate
}

func (s *Section) Tabular() bool {
	return len(s.Rows) > 0
}

func (s *Section) Field(id string) (*Field, bool) {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// Schema is the immutable description of one fiche type. Sections keep their
// declaration order; every walk over a fiche follows that order.
type Schema struct {
	ID          string
	Name        string
	Description string
	Sections    []Section
}

func (s *Schema) Section(id string) (*Section, bool) {
	for i := range s.Sections {
		if s.Sections[i].ID == id {
			return &s.Sections[i], true
		}
	}
	return nil, false
}

// TypeInfo is the display entry for one registered fiche type.
type TypeInfo struct {
	ID          string `json:"id"`
	Name        string `json:"nom"`
	Description string `json:"description"`
}
