// Package ifc assembles spatial-hierarchy exchange documents with one marker
// element per geotagged image record and serializes them as STEP files.
package ifc

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rosbache/afry-img2ifc/internal/config"
	"github.com/rosbache/afry-img2ifc/internal/models"
)

// ErrMissingCoordinates marks a record that cannot be placed because it lacks
// a complete set of transformed coordinates. Recoverable per record.
var ErrMissingCoordinates = errors.New("missing transformed coordinates")

// MapConversion positions the model origin inside the target projected CRS.
// The zero value means identity offset; a zero scale is treated as 1.
type MapConversion struct {
	Eastings         float64
	Northings        float64
	OrthogonalHeight float64
	Scale            float64
}

// ExportConfig is the frozen per-run configuration of one assembly. Defaults
// are resolved once, before the run starts.
type ExportConfig struct {
	Schema           Schema
	MarkerHalfExtent float64
	TargetCRS        string
	MapConversion    MapConversion

	ProjectName        string
	ProjectDescription string
	SiteName           string
	SiteDescription    string
	Building           string
	BuildingDesc       string
	Storey             string
	StoreyDesc         string

	PersonGivenName  string
	PersonFamilyName string
	OrganizationName string
}

// NewExportConfig resolves the run configuration from the application config
// plus an optional project-settings override.
func NewExportConfig(cfg config.ExportConfig, settings *models.ProjectSettings, targetCRS string) (ExportConfig, error) {
	schema, err := ParseSchema(cfg.Schema)
	if err != nil {
		return ExportConfig{}, err
	}

	out := ExportConfig{
		Schema:           schema,
		MarkerHalfExtent: cfg.MarkerHalfExtent,
		TargetCRS:        targetCRS,

		ProjectName:        cfg.ProjectName,
		ProjectDescription: cfg.ProjectDescription,
		SiteName:           cfg.SiteName,
		SiteDescription:    cfg.SiteDescription,
		Building:           cfg.Building,
		BuildingDesc:       cfg.BuildingDesc,
		Storey:             cfg.Storey,
		StoreyDesc:         cfg.StoreyDesc,

		PersonGivenName:  cfg.PersonGivenName,
		PersonFamilyName: cfg.PersonFamilyName,
		OrganizationName: cfg.OrganizationName,
	}

	if settings != nil {
		p := settings.Project
		override(&out.ProjectName, p.ProjectName)
		override(&out.ProjectDescription, p.ProjectDescription)
		override(&out.SiteName, p.SiteName)
		override(&out.SiteDescription, p.SiteDescription)
		override(&out.Building, p.Building)
		override(&out.BuildingDesc, p.BuildingDesc)
		override(&out.Storey, p.Storey)
		override(&out.StoreyDesc, p.StoreyDesc)
		override(&out.TargetCRS, p.TargetCRS)
		override(&out.PersonGivenName, settings.Owner.PersonGivenName)
		override(&out.PersonFamilyName, settings.Owner.PersonFamilyName)
		override(&out.OrganizationName, settings.Owner.OrganizationName)
	}
	return out, nil
}

func override(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

// Report is the true outcome of one assembly: Placed may be lower than
// Attempted without the run failing.
type Report struct {
	Attempted int
	Placed    int
	Skipped   int
}

// Assembler builds one exchange document per instance. It is single-use and
// exclusively owns its in-progress document; nothing is written before the
// whole entity graph exists.
type Assembler struct {
	cfg     ExportConfig
	builder schemaBuilder

	f           *stepFile
	lengthUnit  ref
	geomContext ref
	bodyContext ref

	project ref
	site    ref
	storey  ref

	storeyPlacement ref

	// Shared marker geometry, created on first use and referenced by every
	// marker afterwards.
	markerShape    ref
	hasMarkerShape bool
}

func NewAssembler(cfg ExportConfig) (*Assembler, error) {
	builder, err := builderFor(cfg.Schema)
	if err != nil {
		return nil, err
	}
	if cfg.MarkerHalfExtent <= 0 {
		return nil, fmt.Errorf("marker half extent must be positive: %g", cfg.MarkerHalfExtent)
	}
	return &Assembler{cfg: cfg, builder: builder}, nil
}

// Export builds the full document for records and writes it to outputPath in
// one step. Records without complete transformed coordinates are skipped with
// a warning and counted in the report; structural failures abort the run
// before anything is written.
func (a *Assembler) Export(records []models.ImageRecord, outputPath string) (*Report, error) {
	if a.f != nil {
		return nil, errors.New("assembler already used; create a new one per run")
	}

	a.buildStructure()

	report := &Report{Attempted: len(records)}
	for i := range records {
		rec := &records[i]
		if err := a.addMarker(rec); err != nil {
			report.Skipped++
			slog.Warn("skipping record", "file", rec.Filename, "error", err)
			continue
		}
		report.Placed++
	}

	if err := a.write(outputPath); err != nil {
		return nil, err
	}

	slog.Info("exported IFC file",
		"path", outputPath,
		"schema", string(a.cfg.Schema),
		"attempted", report.Attempted,
		"placed", report.Placed,
		"skipped", report.Skipped)
	return report, nil
}

// buildStructure runs the fixed construction sequence: units are declared
// before any geometry so downstream viewers read all lengths as meters, then
// the project/site/building/storey chain is aggregated with every placement
// at its parent's origin.
func (a *Assembler) buildStructure() {
	f := newStepFile(a.builder.schemaName())
	f.author = a.cfg.PersonGivenName + " " + a.cfg.PersonFamilyName
	f.organization = a.cfg.OrganizationName
	a.f = f

	a.builder.setup(f, a.cfg)

	origin := f.add("IFCCARTESIANPOINT", []any{0.0, 0.0, 0.0})
	worldPlacement := f.add("IFCAXIS2PLACEMENT3D", origin, nil, nil)
	a.geomContext = f.add("IFCGEOMETRICREPRESENTATIONCONTEXT",
		nil, "Model", 3, 1e-5, worldPlacement, nil)

	a.lengthUnit = f.add("IFCSIUNIT", derived{}, enum("LENGTHUNIT"), nil, enum("METRE"))
	areaUnit := f.add("IFCSIUNIT", derived{}, enum("AREAUNIT"), nil, enum("SQUARE_METRE"))
	volumeUnit := f.add("IFCSIUNIT", derived{}, enum("VOLUMEUNIT"), nil, enum("CUBIC_METRE"))
	units := f.add("IFCUNITASSIGNMENT", []any{a.lengthUnit, areaUnit, volumeUnit})

	a.project = f.add("IFCPROJECT", a.rooted(
		a.cfg.ProjectName,
		a.cfg.ProjectDescription,
		nil,
		nil,
		nil,
		[]any{a.geomContext},
		units)...)

	a.bodyContext = f.add("IFCGEOMETRICREPRESENTATIONSUBCONTEXT",
		"Body", "Model", derived{}, derived{}, derived{}, derived{},
		a.geomContext, nil, enum("MODEL_VIEW"), nil)

	sitePlacement := a.placementAtOrigin(0)
	a.site = f.add("IFCSITE", a.rooted(
		a.cfg.SiteName,
		a.cfg.SiteDescription,
		nil,
		sitePlacement,
		nil,
		nil,
		enum("ELEMENT"),
		nil, nil, nil, nil, nil)...)
	a.aggregate("Project-Site", a.project, a.site)

	buildingPlacement := a.placementAtOrigin(sitePlacement)
	building := f.add("IFCBUILDING", a.rooted(
		a.cfg.Building,
		a.cfg.BuildingDesc,
		nil,
		buildingPlacement,
		nil,
		nil,
		enum("ELEMENT"),
		nil, nil, nil)...)
	a.aggregate("Site-Building", a.site, building)

	a.storeyPlacement = a.placementAtOrigin(buildingPlacement)
	a.storey = f.add("IFCBUILDINGSTOREY", a.rooted(
		a.cfg.Storey,
		a.cfg.StoreyDesc,
		nil,
		a.storeyPlacement,
		nil,
		nil,
		enum("ELEMENT"),
		nil)...)
	a.aggregate("Building-Storey", building, a.storey)

	a.builder.mapConversion(f, a.geomContext, a.lengthUnit, a.cfg)
}

// rooted prepends the GlobalId and ownership prefix for the active schema.
func (a *Assembler) rooted(attrs ...any) []any {
	return append(a.builder.rooted(), attrs...)
}

// placementAtOrigin creates a local placement at (0,0,0). A zero parent means
// no relative placement.
func (a *Assembler) placementAtOrigin(parent ref) ref {
	point := a.f.add("IFCCARTESIANPOINT", []any{0.0, 0.0, 0.0})
	axis := a.f.add("IFCAXIS2PLACEMENT3D", point, nil, nil)
	var parentAttr any
	if parent != 0 {
		parentAttr = parent
	}
	return a.f.add("IFCLOCALPLACEMENT", parentAttr, axis)
}

func (a *Assembler) aggregate(name string, parent, child ref) {
	a.f.add("IFCRELAGGREGATES", a.rooted(name, nil, parent, []any{child})...)
}

// sharedMarkerShape returns the one box representation every marker
// references, creating it together with its red surface style on first use.
func (a *Assembler) sharedMarkerShape() ref {
	if a.hasMarkerShape {
		return a.markerShape
	}
	f := a.f
	size := a.cfg.MarkerHalfExtent * 2

	center2D := f.add("IFCCARTESIANPOINT", []any{0.0, 0.0})
	profilePlacement := f.add("IFCAXIS2PLACEMENT2D", center2D, nil)
	profile := f.add("IFCRECTANGLEPROFILEDEF",
		enum("AREA"), "MarkerProfile", profilePlacement, size, size)

	base := f.add("IFCCARTESIANPOINT", []any{0.0, 0.0, 0.0})
	position := f.add("IFCAXIS2PLACEMENT3D", base, nil, nil)
	up := f.add("IFCDIRECTION", []any{0.0, 0.0, 1.0})
	solid := f.add("IFCEXTRUDEDAREASOLID", profile, position, up, size)

	colour := f.add("IFCCOLOURRGB", nil, 1.0, 0.0, 0.0)
	shading := a.builder.shading(f, colour)
	style := f.add("IFCSURFACESTYLE", "Red", enum("BOTH"), []any{shading})
	a.builder.styleItem(f, solid, style)

	a.markerShape = f.add("IFCSHAPEREPRESENTATION",
		a.bodyContext, "Body", "SweptSolid", []any{solid})
	a.hasMarkerShape = true
	return a.markerShape
}

// addMarker places one proxy element at the record's transformed coordinates,
// contained in the storey, with the image property set and document
// reference attached.
func (a *Assembler) addMarker(rec *models.ImageRecord) error {
	if !rec.HasTransformed() {
		return fmt.Errorf("%w: %s", ErrMissingCoordinates, rec.Filename)
	}
	f := a.f
	shape := a.sharedMarkerShape()

	point := f.add("IFCCARTESIANPOINT", []any{*rec.TransformedX, *rec.TransformedY, *rec.TransformedZ})
	axis := f.add("IFCAXIS2PLACEMENT3D", point, nil, nil)
	placement := f.add("IFCLOCALPLACEMENT", a.storeyPlacement, axis)
	productShape := f.add("IFCPRODUCTDEFINITIONSHAPE", nil, nil, []any{shape})

	name := rec.Filename
	if name == "" {
		name = "Marker"
	}
	proxy := f.add("IFCBUILDINGELEMENTPROXY", a.rooted(
		"Image Marker - "+name,
		"360 degree panoramic image marker at GPS location",
		nil,
		placement,
		productShape,
		nil,
		a.builder.proxyTrailing())...)

	f.add("IFCRELCONTAINEDINSPATIALSTRUCTURE", a.rooted(
		"StoreyContains", nil, []any{proxy}, a.storey)...)

	a.addImageProperties(proxy, rec)

	document := a.builder.documentReference(f, rec)
	f.add("IFCRELASSOCIATESDOCUMENT", a.rooted(nil, nil, []any{proxy}, document)...)

	return nil
}

func (a *Assembler) addImageProperties(element ref, rec *models.ImageRecord) {
	f := a.f

	var props []any
	addProp := func(name string, value typed) {
		props = append(props, f.add("IFCPROPERTYSINGLEVALUE", name, nil, value, nil))
	}

	addProp("ImageFilename", typed{"IFCTEXT", rec.Filename})
	addProp("ImageURL", typed{"IFCTEXT", rec.ImageURL})
	addProp("GPS_Latitude", typed{"IFCREAL", rec.LatitudeOrZero()})
	addProp("GPS_Longitude", typed{"IFCREAL", rec.LongitudeOrZero()})
	addProp("GPS_Elevation", typed{"IFCREAL", rec.ElevationOrZero()})
	if rec.DateTaken != "" {
		addProp("DateTaken", typed{"IFCTEXT", rec.DateTaken})
	}

	propertySet := f.add("IFCPROPERTYSET", a.rooted("ImageMetadata", nil, props)...)
	f.add("IFCRELDEFINESBYPROPERTIES", a.rooted(nil, nil, []any{element}, propertySet)...)
}

// write serializes the finished document. The output directory is created if
// missing, and the file appears atomically via a temp file + rename so a
// failed run never leaves a partial document behind.
func (a *Assembler) write(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".img2ifc-*.tmp")
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}

	content := a.f.render(filepath.Base(outputPath))
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing IFC file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing IFC file: %w", err)
	}

	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing IFC file: %w", err)
	}
	return nil
}
