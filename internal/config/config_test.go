package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("unexpected default port %d", cfg.Server.Port)
	}
	if cfg.Extract.SourceCRS != "EPSG:4326" || cfg.Extract.TargetCRS != "EPSG:5110" {
		t.Errorf("unexpected default CRS pair %s -> %s",
			cfg.Extract.SourceCRS, cfg.Extract.TargetCRS)
	}
	if cfg.Export.Schema != "IFC2X3" {
		t.Errorf("unexpected default schema %q", cfg.Export.Schema)
	}
	if cfg.Export.MarkerHalfExtent != 2.0 {
		t.Errorf("unexpected default half extent %g", cfg.Export.MarkerHalfExtent)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("unexpected default log level %q", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TARGET_CRS", "EPSG:25832")
	t.Setenv("IFC_SCHEMA", "IFC4X3")
	t.Setenv("MARKER_HALF_EXTENT", "0.5")
	t.Setenv("INCLUDE_NO_GPS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port override lost, got %d", cfg.Server.Port)
	}
	if cfg.Extract.TargetCRS != "EPSG:25832" {
		t.Errorf("CRS override lost, got %q", cfg.Extract.TargetCRS)
	}
	if cfg.Export.Schema != "IFC4X3" {
		t.Errorf("schema override lost, got %q", cfg.Export.Schema)
	}
	if cfg.Export.MarkerHalfExtent != 0.5 {
		t.Errorf("half extent override lost, got %g", cfg.Export.MarkerHalfExtent)
	}
	if !cfg.Extract.IncludeNoGPS {
		t.Error("include-no-gps override lost")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "SERVER_PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad schema", "IFC_SCHEMA", "IFC1X0"},
		{"bad half extent", "MARKER_HALF_EXTENT", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func testDefaults() ExportConfig {
	return ExportConfig{
		Schema:           "IFC2X3",
		MarkerHalfExtent: 2,
		ProjectName:      "GPS Image Markers",
		SiteName:         "Image Location Site",
		Building:         "Image Markers Building",
		Storey:           "Image Markers Storey",
		PersonGivenName:  "Default",
		PersonFamilyName: "User",
		OrganizationName: "Default Organization",
	}
}

func TestLoadProjectSettings_EmptyPath(t *testing.T) {
	settings, err := LoadProjectSettings("", testDefaults())
	if err != nil {
		t.Fatalf("LoadProjectSettings failed: %v", err)
	}

	if settings.Project.ProjectName != "GPS Image Markers" {
		t.Errorf("defaults not applied, got %q", settings.Project.ProjectName)
	}
	if settings.Owner.OrganizationName != "Default Organization" {
		t.Errorf("owner defaults not applied, got %q", settings.Owner.OrganizationName)
	}
}

func TestLoadProjectSettings_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project_settings.json")
	content := `{
  "project_settings": {
    "ifc_project_name": "Road Survey 2025",
    "target_crs": "EPSG:25832"
  },
  "owner_information": {
    "organization_name": "Survey Org"
  }
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed writing settings file: %v", err)
	}

	settings, err := LoadProjectSettings(path, testDefaults())
	if err != nil {
		t.Fatalf("LoadProjectSettings failed: %v", err)
	}

	if settings.Project.ProjectName != "Road Survey 2025" {
		t.Errorf("project name override lost, got %q", settings.Project.ProjectName)
	}
	if settings.Project.TargetCRS != "EPSG:25832" {
		t.Errorf("target CRS override lost, got %q", settings.Project.TargetCRS)
	}
	if settings.Owner.OrganizationName != "Survey Org" {
		t.Errorf("organization override lost, got %q", settings.Owner.OrganizationName)
	}
	// Fields absent from the file keep their defaults.
	if settings.Project.SiteName != "Image Location Site" {
		t.Errorf("site default lost, got %q", settings.Project.SiteName)
	}
	if settings.Owner.PersonGivenName != "Default" {
		t.Errorf("person default lost, got %q", settings.Owner.PersonGivenName)
	}
}

func TestLoadProjectSettings_MissingFile(t *testing.T) {
	if _, err := LoadProjectSettings(filepath.Join(t.TempDir(), "nope.json"), testDefaults()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadProjectSettings_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed writing settings file: %v", err)
	}
	if _, err := LoadProjectSettings(path, testDefaults()); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
