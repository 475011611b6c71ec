package ifc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ref is a handle to an entity instance inside one stepFile (#N in the
// serialized form).
type ref int

// enum serializes as .VALUE.
type enum string

// typed wraps a value in an explicit IFC defined type, e.g. IFCTEXT('...').
type typed struct {
	t string
	v any
}

// derived serializes as *, the STEP marker for attributes redeclared as
// derived in a subtype.
type derived struct{}

type entityInstance struct {
	id    ref
	name  string
	attrs []any
}

// stepFile accumulates entity instances and serializes them as an
// ISO-10303-21 exchange structure.
type stepFile struct {
	schema       string
	description  string
	author       string
	organization string
	originating  string
	preprocessor string
	timestamp    time.Time
	entities     []*entityInstance
}

func newStepFile(schema string) *stepFile {
	return &stepFile{
		schema:       schema,
		description:  "ViewDefinition [CoordinationView]",
		preprocessor: "afry-img2ifc",
		originating:  "AFRY Image to IFC Exporter",
		timestamp:    time.Now(),
	}
}

// add appends an entity instance and returns its reference.
func (f *stepFile) add(name string, attrs ...any) ref {
	id := ref(len(f.entities) + 1)
	f.entities = append(f.entities, &entityInstance{id: id, name: name, attrs: attrs})
	return id
}

func (f *stepFile) render(fileName string) string {
	var b strings.Builder

	b.WriteString("ISO-10303-21;\n")
	b.WriteString("HEADER;\n")
	fmt.Fprintf(&b, "FILE_DESCRIPTION((%s),'2;1');\n", quote(f.description))
	fmt.Fprintf(&b, "FILE_NAME(%s,%s,(%s),(%s),%s,%s,'');\n",
		quote(fileName),
		quote(f.timestamp.Format("2006-01-02T15:04:05")),
		quote(f.author),
		quote(f.organization),
		quote(f.preprocessor),
		quote(f.originating))
	fmt.Fprintf(&b, "FILE_SCHEMA((%s));\n", quote(f.schema))
	b.WriteString("ENDSEC;\n")
	b.WriteString("DATA;\n")

	for _, e := range f.entities {
		fmt.Fprintf(&b, "#%d=%s(", e.id, e.name)
		for i, attr := range e.attrs {
			if i > 0 {
				b.WriteByte(',')
			}
			writeAttr(&b, attr)
		}
		b.WriteString(");\n")
	}

	b.WriteString("ENDSEC;\n")
	b.WriteString("END-ISO-10303-21;\n")
	return b.String()
}

func writeAttr(b *strings.Builder, attr any) {
	switch v := attr.(type) {
	case nil:
		b.WriteByte('$')
	case derived:
		b.WriteByte('*')
	case ref:
		fmt.Fprintf(b, "#%d", v)
	case enum:
		fmt.Fprintf(b, ".%s.", string(v))
	case typed:
		fmt.Fprintf(b, "%s(", v.t)
		writeAttr(b, v.v)
		b.WriteByte(')')
	case string:
		b.WriteString(quote(v))
	case float64:
		b.WriteString(formatReal(v))
	case int:
		b.WriteString(strconv.Itoa(v))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case []any:
		b.WriteByte('(')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			writeAttr(b, item)
		}
		b.WriteByte(')')
	default:
		// Unreachable with the attribute kinds the builders emit.
		fmt.Fprintf(b, "%v", v)
	}
}

// formatReal renders a STEP REAL, which must carry a decimal point or
// exponent.
func formatReal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += "."
	}
	return s
}

// quote renders a STEP string literal. Apostrophes double, backslashes
// escape, and characters outside the printable ASCII range use the \X2\ (or
// \X4\ beyond the basic plane) encoding so names like "Blindernveien" with
// æ/ø/å stay conformant.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch {
		case r == '\'':
			b.WriteString("''")
		case r == '\\':
			b.WriteString(`\\`)
		case r >= 0x20 && r <= 0x7e:
			b.WriteRune(r)
		case r > 0xffff:
			fmt.Fprintf(&b, `\X4\%08X\X0\`, r)
		default:
			fmt.Fprintf(&b, `\X2\%04X\X0\`, r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
