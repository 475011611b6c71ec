package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server  ServerConfig
	Extract ExtractConfig
	Export  ExportConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host     string
	Port     int
	ImageDir string
}

type ExtractConfig struct {
	SourceCRS       string
	TargetCRS       string
	IncludeNoGPS    bool
	ExtendedFormats bool // also accept .bmp/.gif
	BaseImageURL    string
}

type ExportConfig struct {
	Schema           string // "IFC2X3" or "IFC4X3"
	MarkerHalfExtent float64

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

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:     getEnv("SERVER_HOST", "localhost"),
			Port:     getEnvInt("SERVER_PORT", 8080),
			ImageDir: getEnv("IMAGE_DIR", "./images"),
		},
		Extract: ExtractConfig{
			SourceCRS:       getEnv("SOURCE_CRS", "EPSG:4326"),
			TargetCRS:       getEnv("TARGET_CRS", "EPSG:5110"),
			IncludeNoGPS:    getEnvBool("INCLUDE_NO_GPS", false),
			ExtendedFormats: getEnvBool("EXTENDED_FORMATS", false),
			BaseImageURL:    getEnv("BASE_IMAGE_URL", ""),
		},
		Export: ExportConfig{
			Schema:           getEnv("IFC_SCHEMA", "IFC2X3"),
			MarkerHalfExtent: getEnvFloat("MARKER_HALF_EXTENT", 2.0),

			ProjectName:        getEnv("IFC_PROJECT_NAME", "GPS Image Markers"),
			ProjectDescription: getEnv("IFC_PROJECT_DESCRIPTION", "Image locations exported from GPS metadata"),
			SiteName:           getEnv("IFC_SITE_NAME", "Image Location Site"),
			SiteDescription:    getEnv("IFC_SITE_DESCRIPTION", "Site containing image markers"),
			Building:           getEnv("IFC_BUILDING", "Image Markers Building"),
			BuildingDesc:       getEnv("IFC_BUILDING_DESCRIPTION", "Building containing image markers"),
			Storey:             getEnv("IFC_BUILDING_STOREY", "Image Markers Storey"),
			StoreyDesc:         getEnv("IFC_BUILDING_STOREY_DESCRIPTION", "Storey containing image markers"),

			PersonGivenName:  getEnv("PERSON_GIVEN_NAME", "Default"),
			PersonFamilyName: getEnv("PERSON_FAMILY_NAME", "User"),
			OrganizationName: getEnv("ORGANIZATION_NAME", "Default Organization"),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/img2ifc.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Export.Schema != "IFC2X3" && c.Export.Schema != "IFC4X3" {
		return fmt.Errorf("invalid IFC schema: %s", c.Export.Schema)
	}
	if c.Export.MarkerHalfExtent <= 0 {
		return fmt.Errorf("marker half extent must be positive: %g", c.Export.MarkerHalfExtent)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
