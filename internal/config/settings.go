package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rosbache/afry-img2ifc/internal/models"
)

// LoadProjectSettings reads a project_settings.json file and fills any absent
// field from the built-in export defaults. An empty path yields pure defaults.
func LoadProjectSettings(path string, defaults ExportConfig) (*models.ProjectSettings, error) {
	settings := defaultSettings(defaults)
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading project settings: %w", err)
	}

	var loaded models.ProjectSettings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("error parsing project settings %s: %w", path, err)
	}

	applyOverride(&settings.Project.ProjectName, loaded.Project.ProjectName)
	applyOverride(&settings.Project.ProjectDescription, loaded.Project.ProjectDescription)
	applyOverride(&settings.Project.SiteName, loaded.Project.SiteName)
	applyOverride(&settings.Project.SiteDescription, loaded.Project.SiteDescription)
	applyOverride(&settings.Project.Building, loaded.Project.Building)
	applyOverride(&settings.Project.BuildingDesc, loaded.Project.BuildingDesc)
	applyOverride(&settings.Project.Storey, loaded.Project.Storey)
	applyOverride(&settings.Project.StoreyDesc, loaded.Project.StoreyDesc)
	applyOverride(&settings.Project.TargetCRS, loaded.Project.TargetCRS)
	applyOverride(&settings.Owner.PersonGivenName, loaded.Owner.PersonGivenName)
	applyOverride(&settings.Owner.PersonFamilyName, loaded.Owner.PersonFamilyName)
	applyOverride(&settings.Owner.OrganizationName, loaded.Owner.OrganizationName)

	return settings, nil
}

func defaultSettings(d ExportConfig) *models.ProjectSettings {
	return &models.ProjectSettings{
		Project: models.ProjectNaming{
			ProjectName:        d.ProjectName,
			ProjectDescription: d.ProjectDescription,
			SiteName:           d.SiteName,
			SiteDescription:    d.SiteDescription,
			Building:           d.Building,
			BuildingDesc:       d.BuildingDesc,
			Storey:             d.Storey,
			StoreyDesc:         d.StoreyDesc,
		},
		Owner: models.OwnerInformation{
			PersonGivenName:  d.PersonGivenName,
			PersonFamilyName: d.PersonFamilyName,
			OrganizationName: d.OrganizationName,
		},
	}
}

func applyOverride(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}
