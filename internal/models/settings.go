package models

// ProjectSettings is the optional per-run override for IFC naming and
// ownership, loaded from a project_settings.json file.
type ProjectSettings struct {
	Project ProjectNaming    `json:"project_settings"`
	Owner   OwnerInformation `json:"owner_information"`
}

type ProjectNaming struct {
	ProjectName        string `json:"ifc_project_name"`
	ProjectDescription string `json:"ifc_project_description"`
	SiteName           string `json:"ifc_site_name"`
	SiteDescription    string `json:"ifc_site_description"`
	Building           string `json:"ifc_building"`
	BuildingDesc       string `json:"ifc_building_description"`
	Storey             string `json:"ifc_building_storey"`
	StoreyDesc         string `json:"ifc_building_storey_description"`
	TargetCRS          string `json:"target_crs,omitempty"`
}

type OwnerInformation struct {
	PersonGivenName  string `json:"person_given_name"`
	PersonFamilyName string `json:"person_family_name"`
	OrganizationName string `json:"organization_name"`
}
