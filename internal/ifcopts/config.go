// Package ifcopts is the process-wide tunable registry (spec §4.M / §2
// row M): a flat, mutate-before-iterate record with no locking, the same
// discipline the teacher applies to dartfmt.Options.
package ifcopts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ifcgo/internal/ifcerr"
)

// Flag names accepted by Config.Set, mirroring spec §4.M.
const (
	FlagUseWorldCoords           = "use-world-coords"
	FlagWeldVertices             = "weld-vertices"
	FlagConvertBackUnits         = "convert-back-units"
	FlagUseBrepData              = "use-brep-data"
	FlagUseFasterBooleans        = "use-faster-booleans"
	FlagSewShells                = "sew-shells"
	FlagForceCCWFaceOrientation  = "force-ccw-face-orientation"
	FlagDisableOpeningSubtractions = "disable-opening-subtractions"
	FlagDisableTriangulation     = "disable-triangulation"
	FlagPrecision                = "precision"
	FlagDeflectionTolerance      = "deflection-tolerance"
	FlagMinimalFaceArea          = "minimal-face-area"
	FlagPointEqualityTolerance   = "point-equality-tolerance"
)

// defaultDeflectionTolerance is GV_DEFLECTION_TOLERANCE from the original
// kernel defaults.
const (
	defaultPrecision              = 1e-5
	defaultDeflectionTolerance    = 0.001
	defaultMinimalFaceArea        = 1e-9
	defaultPointEqualityTolerance = 1e-6
	maxFacesToSewEnabled          = 1000
	maxFacesToSewDisabled         = -1
)

// Config is the flat tunable record of spec §3/§4.M. Read anywhere, written
// only before iteration begins.
type Config struct {
	UseWorldCoords             bool
	WeldVertices               bool
	ConvertBackUnits           bool
	UseBrepData                bool
	UseFasterBooleans          bool
	SewShells                  bool
	ForceCCWFaceOrientation    bool
	DisableOpeningSubtractions bool
	DisableTriangulation       bool

	Precision              float64
	DeflectionTolerance    float64
	MinimalFaceArea        float64
	PointEqualityTolerance float64

	Mode ifcerr.Mode
}

// Default returns the configuration the iterator assumes when none is
// supplied: welding on, world-coords off, booleans and triangulation
// enabled, best-effort error handling.
func Default() *Config {
	return &Config{
		WeldVertices:           true,
		Precision:              defaultPrecision,
		DeflectionTolerance:    defaultDeflectionTolerance,
		MinimalFaceArea:        defaultMinimalFaceArea,
		PointEqualityTolerance: defaultPointEqualityTolerance,
		Mode:                   ifcerr.ModeBestEffort,
	}
}

// MaxFacesToSew translates the boolean SewShells flag into the numeric
// threshold the backend adapter expects (1000 vs -1, per spec §4.M).
func (c *Config) MaxFacesToSew() int {
	if c.SewShells {
		return maxFacesToSewEnabled
	}
	return maxFacesToSewDisabled
}

// Set applies a single named flag/value pair, the Settings(flag, value)
// surface named in spec §6.
func (c *Config) Set(flag string, value any) error {
	switch flag {
	case FlagUseWorldCoords:
		return c.setBool(&c.UseWorldCoords, flag, value)
	case FlagWeldVertices:
		return c.setBool(&c.WeldVertices, flag, value)
	case FlagConvertBackUnits:
		return c.setBool(&c.ConvertBackUnits, flag, value)
	case FlagUseBrepData:
		return c.setBool(&c.UseBrepData, flag, value)
	case FlagUseFasterBooleans:
		return c.setBool(&c.UseFasterBooleans, flag, value)
	case FlagSewShells:
		return c.setBool(&c.SewShells, flag, value)
	case FlagForceCCWFaceOrientation:
		return c.setBool(&c.ForceCCWFaceOrientation, flag, value)
	case FlagDisableOpeningSubtractions:
		return c.setBool(&c.DisableOpeningSubtractions, flag, value)
	case FlagDisableTriangulation:
		return c.setBool(&c.DisableTriangulation, flag, value)
	case FlagPrecision:
		return c.setFloat(&c.Precision, flag, value)
	case FlagDeflectionTolerance:
		return c.setFloat(&c.DeflectionTolerance, flag, value)
	case FlagMinimalFaceArea:
		return c.setFloat(&c.MinimalFaceArea, flag, value)
	case FlagPointEqualityTolerance:
		return c.setFloat(&c.PointEqualityTolerance, flag, value)
	default:
		return fmt.Errorf("ifcopts: unknown flag %q", flag)
	}
}

func (c *Config) setBool(dst *bool, flag string, value any) error {
	b, ok := value.(bool)
	if !ok {
		return fmt.Errorf("ifcopts: flag %q expects a bool, got %T", flag, value)
	}
	*dst = b
	return nil
}

func (c *Config) setFloat(dst *float64, flag string, value any) error {
	switch v := value.(type) {
	case float64:
		*dst = v
	case float32:
		*dst = float64(v)
	case int:
		*dst = float64(v)
	default:
		return fmt.Errorf("ifcopts: flag %q expects a number, got %T", flag, value)
	}
	return nil
}

// yamlConfig mirrors Config's fields with yaml tags for file-based loading.
type yamlConfig struct {
	UseWorldCoords             *bool    `yaml:"use_world_coords"`
	WeldVertices               *bool    `yaml:"weld_vertices"`
	ConvertBackUnits           *bool    `yaml:"convert_back_units"`
	UseBrepData                *bool    `yaml:"use_brep_data"`
	UseFasterBooleans          *bool    `yaml:"use_faster_booleans"`
	SewShells                  *bool    `yaml:"sew_shells"`
	ForceCCWFaceOrientation    *bool    `yaml:"force_ccw_face_orientation"`
	DisableOpeningSubtractions *bool    `yaml:"disable_opening_subtractions"`
	DisableTriangulation       *bool    `yaml:"disable_triangulation"`
	Precision                  *float64 `yaml:"precision"`
	DeflectionTolerance        *float64 `yaml:"deflection_tolerance"`
	MinimalFaceArea            *float64 `yaml:"minimal_face_area"`
	PointEqualityTolerance     *float64 `yaml:"point_equality_tolerance"`
	Strict                     *bool    `yaml:"strict"`
}

// LoadYAML overlays fields present in a YAML settings file onto a base
// config (typically Default()), leaving unset fields untouched.
func LoadYAML(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ifcopts: read %s: %w", path, err)
	}
	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("ifcopts: parse %s: %w", path, err)
	}
	cfg := *base
	assignBool(&cfg.UseWorldCoords, y.UseWorldCoords)
	assignBool(&cfg.WeldVertices, y.WeldVertices)
	assignBool(&cfg.ConvertBackUnits, y.ConvertBackUnits)
	assignBool(&cfg.UseBrepData, y.UseBrepData)
	assignBool(&cfg.UseFasterBooleans, y.UseFasterBooleans)
	assignBool(&cfg.SewShells, y.SewShells)
	assignBool(&cfg.ForceCCWFaceOrientation, y.ForceCCWFaceOrientation)
	assignBool(&cfg.DisableOpeningSubtractions, y.DisableOpeningSubtractions)
	assignBool(&cfg.DisableTriangulation, y.DisableTriangulation)
	assignFloat(&cfg.Precision, y.Precision)
	assignFloat(&cfg.DeflectionTolerance, y.DeflectionTolerance)
	assignFloat(&cfg.MinimalFaceArea, y.MinimalFaceArea)
	assignFloat(&cfg.PointEqualityTolerance, y.PointEqualityTolerance)
	if y.Strict != nil && *y.Strict {
		cfg.Mode = ifcerr.ModeStrict
	}
	return &cfg, nil
}

func assignBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func assignFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
