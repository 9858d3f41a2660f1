package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Graph points the headless engine at one cookable network.
type Graph struct {
	File     string `yaml:"file"`
	NodePath string `yaml:"node_path"`
}

// Engine configures the headless engine executable and its two graphs.
type Engine struct {
	Executable string        `yaml:"executable"`
	Driver     string        `yaml:"driver"`
	Buildings  Graph         `yaml:"buildings"`
	Roads      Graph         `yaml:"roads"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Artifacts holds the fixed storage directory per file category.
type Artifacts struct {
	SplinesDir  string `yaml:"splines_dir"`
	GenZonesDir string `yaml:"genzones_dir"`
	TablesDir   string `yaml:"tables_dir"`
	GeometryDir string `yaml:"geometry_dir"`
}

// Assets holds the editor-side asset folders and template paths.
type Assets struct {
	TableFolder string `yaml:"table_folder"`
	MeshFolder  string `yaml:"mesh_folder"`
	PCGTemplate string `yaml:"pcg_template"`
	PCGFolder   string `yaml:"pcg_folder"`
}

// Markers are the free-text discriminators matched (case-insensitively)
// against actor labels and mesh names in the level.
type Markers struct {
	Spline  string `yaml:"spline"`
	GenZone string `yaml:"genzone"`
}

type Config struct {
	DataDir   string    `yaml:"data_dir"`
	EditorURL string    `yaml:"editor_url"`
	Engine    Engine    `yaml:"engine"`
	Artifacts Artifacts `yaml:"artifacts"`
	Assets    Assets    `yaml:"assets"`
	Markers   Markers   `yaml:"markers"`
}

// Load reads the YAML config, falling back to defaults for anything the
// file leaves out. path == "" uses $UNDINI_CONFIG, then
// <data_dir>/config.yaml if present, then pure defaults.
func Load(path string) (*Config, error) {
	c := defaults()

	if path == "" {
		path = getEnv("UNDINI_CONFIG", "")
	}
	if path == "" {
		candidate := filepath.Join(c.DataDir, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if dir := getEnv("UNDINI_DATA_DIR", ""); dir != "" {
		c.DataDir = dir
	}
	c.fillDefaults()
	return c, nil
}

func defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	dataDir := getEnv("UNDINI_DATA_DIR", filepath.Join(homeDir, ".undini"))
	c := &Config{DataDir: dataDir}
	c.fillDefaults()
	return c
}

func (c *Config) fillDefaults() {
	setIfEmpty(&c.EditorURL, "http://127.0.0.1:8730")
	setIfEmpty(&c.Engine.Executable, "hython")
	setIfEmpty(&c.Engine.Buildings.NodePath, "/obj/geo1/topnet")
	setIfEmpty(&c.Engine.Roads.NodePath, "/obj/geo1/topnet")
	if c.Engine.Timeout == 0 {
		c.Engine.Timeout = 30 * time.Minute
	}

	deps := filepath.Join(c.DataDir, "dependencies")
	setIfEmpty(&c.Artifacts.SplinesDir, filepath.Join(deps, "in", "splines"))
	setIfEmpty(&c.Artifacts.GenZonesDir, filepath.Join(deps, "in", "genzones"))
	setIfEmpty(&c.Artifacts.TablesDir, filepath.Join(deps, "out", "csv"))
	setIfEmpty(&c.Artifacts.GeometryDir, filepath.Join(deps, "out", "geometry"))

	setIfEmpty(&c.Assets.TableFolder, "/Game/Pipeline/CSV")
	setIfEmpty(&c.Assets.MeshFolder, "/Game/Pipeline/Assets")
	setIfEmpty(&c.Assets.PCGTemplate, "/Game/Pipeline/BP/BP_PCG_HD_TEMPLATE")
	setIfEmpty(&c.Assets.PCGFolder, "/Game/Pipeline/BP/BP_PCG_HD_inst")

	setIfEmpty(&c.Markers.Spline, "BP_CityKit_spline")
	setIfEmpty(&c.Markers.GenZone, "genzone")
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "undini.db")
}

func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
