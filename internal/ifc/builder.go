package ifc

import (
	"fmt"

	"github.com/rosbache/afry-img2ifc/internal/models"
)

// Schema selects one of the two supported exchange schema variants.
type Schema string

const (
	// SchemaLegacy stamps every rooted entity with an owner history, as
	// IFC2X3 requires.
	SchemaLegacy Schema = "IFC2X3"
	// SchemaExtended omits owner histories and can bind the model origin to
	// a projected CRS via a map conversion.
	SchemaExtended Schema = "IFC4X3"
)

func ParseSchema(s string) (Schema, error) {
	switch Schema(s) {
	case SchemaLegacy, SchemaExtended:
		return Schema(s), nil
	}
	return "", fmt.Errorf("unsupported IFC schema: %q", s)
}

// schemaBuilder centralizes every construction detail that differs between
// the two schema variants, so one document never mixes stamped and unstamped
// entities. A builder is selected once per assembly run.
type schemaBuilder interface {
	schemaName() string

	// setup creates per-run context entities. For the legacy schema this is
	// the single owner-history stamp threaded through every rooted entity.
	setup(f *stepFile, cfg ExportConfig)

	// rooted returns the GlobalId + ownership prefix for a rooted entity.
	rooted() []any

	// styleItem attaches a surface style to a representation item.
	styleItem(f *stepFile, item ref, style ref)

	// shading creates the schema's surface-style shading entity.
	shading(f *stepFile, colour ref) ref

	// documentReference creates the clickable image reference; the attribute
	// layout changed between the schema versions.
	documentReference(f *stepFile, rec *models.ImageRecord) ref

	// proxyTrailing is the final attribute of a building element proxy
	// (composition type in legacy, predefined type in extended).
	proxyTrailing() any

	// mapConversion binds the model origin to the target projected CRS.
	// Only the extended schema emits anything.
	mapConversion(f *stepFile, geomContext ref, lengthUnit ref, cfg ExportConfig)
}

func builderFor(schema Schema) (schemaBuilder, error) {
	switch schema {
	case SchemaLegacy:
		return &legacyBuilder{}, nil
	case SchemaExtended:
		return &extendedBuilder{}, nil
	}
	return nil, fmt.Errorf("unsupported IFC schema: %q", schema)
}

// legacyBuilder emits IFC2X3 documents with a shared owner-history stamp.
type legacyBuilder struct {
	ownerHistory ref
}

func (b *legacyBuilder) schemaName() string { return string(SchemaLegacy) }

func (b *legacyBuilder) setup(f *stepFile, cfg ExportConfig) {
	organization := f.add("IFCORGANIZATION", nil, cfg.OrganizationName, nil, nil, nil)
	person := f.add("IFCPERSON", nil, cfg.PersonFamilyName, cfg.PersonGivenName, nil, nil, nil, nil, nil)
	personAndOrg := f.add("IFCPERSONANDORGANIZATION", person, organization, nil)
	application := f.add("IFCAPPLICATION", organization, "1.0", f.originating, "IMG2IFC")

	b.ownerHistory = f.add("IFCOWNERHISTORY",
		personAndOrg,
		application,
		enum("READWRITE"),
		enum("ADDED"),
		nil,
		nil,
		nil,
		int64(f.timestamp.Unix()))
}

func (b *legacyBuilder) rooted() []any {
	return []any{newGlobalID(), b.ownerHistory}
}

func (b *legacyBuilder) shading(f *stepFile, colour ref) ref {
	return f.add("IFCSURFACESTYLESHADING", colour)
}

func (b *legacyBuilder) styleItem(f *stepFile, item ref, style ref) {
	assignment := f.add("IFCPRESENTATIONSTYLEASSIGNMENT", []any{style})
	f.add("IFCSTYLEDITEM", item, []any{assignment}, nil)
}

func (b *legacyBuilder) documentReference(f *stepFile, rec *models.ImageRecord) ref {
	// IFC2X3 layout: Location, ItemReference, Name.
	return f.add("IFCDOCUMENTREFERENCE",
		rec.ImageURL,
		rec.Filename,
		"360 degree panoramic image")
}

func (b *legacyBuilder) proxyTrailing() any { return enum("ELEMENT") }

func (b *legacyBuilder) mapConversion(*stepFile, ref, ref, ExportConfig) {}

// extendedBuilder emits IFC4X3 documents: no ownership stamps, optional
// geodetic map conversion.
type extendedBuilder struct{}

func (b *extendedBuilder) schemaName() string { return string(SchemaExtended) }

func (b *extendedBuilder) setup(*stepFile, ExportConfig) {}

func (b *extendedBuilder) rooted() []any {
	return []any{newGlobalID(), nil}
}

func (b *extendedBuilder) shading(f *stepFile, colour ref) ref {
	return f.add("IFCSURFACESTYLESHADING", colour, nil)
}

func (b *extendedBuilder) styleItem(f *stepFile, item ref, style ref) {
	f.add("IFCSTYLEDITEM", item, []any{style}, nil)
}

func (b *extendedBuilder) documentReference(f *stepFile, rec *models.ImageRecord) ref {
	// IFC4 layout: Location, Identification, Name, Description,
	// ReferencedDocument.
	return f.add("IFCDOCUMENTREFERENCE",
		rec.ImageURL,
		rec.Filename,
		nil,
		fmt.Sprintf("360 degree panoramic image - %s", rec.Filename),
		nil)
}

func (b *extendedBuilder) proxyTrailing() any { return nil }

func (b *extendedBuilder) mapConversion(f *stepFile, geomContext ref, lengthUnit ref, cfg ExportConfig) {
	if cfg.TargetCRS == "" {
		return
	}

	projected := f.add("IFCPROJECTEDCRS",
		cfg.TargetCRS,
		fmt.Sprintf("Projected CRS %s", cfg.TargetCRS),
		nil,
		nil,
		nil,
		nil,
		lengthUnit)

	scale := cfg.MapConversion.Scale
	if scale == 0 {
		scale = 1
	}
	f.add("IFCMAPCONVERSION",
		geomContext,
		projected,
		cfg.MapConversion.Eastings,
		cfg.MapConversion.Northings,
		cfg.MapConversion.OrthogonalHeight,
		nil,
		nil,
		scale)
}
