package batch

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/cwbudde/algo-dls/rheology"
	"github.com/cwbudde/algo-dls/store"
	"github.com/cwbudde/algo-dls/zetasizer"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigurationMismatch is returned when a per-condition map does not
	// name exactly the configured conditions.
	ErrConfigurationMismatch = errors.New("batch: per-condition keys do not match conditions")
	// ErrInvalidConfig is returned for an incomplete or inconsistent layout.
	ErrInvalidConfig = errors.New("batch: invalid configuration")
)

// PerCondition holds a value given either once for every condition or as a
// map keyed by condition name.
type PerCondition[T any] struct {
	all    T
	byName map[string]T
	set    bool
}

// Scalar returns a value shared by every condition.
func Scalar[T any](v T) PerCondition[T] {
	return PerCondition[T]{all: v, set: true}
}

// ByCondition returns per-condition values.
func ByCondition[T any](m map[string]T) PerCondition[T] {
	return PerCondition[T]{byName: maps.Clone(m), set: true}
}

// UnmarshalYAML accepts a scalar or a mapping node.
func (p *PerCondition[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		m := map[string]T{}
		if err := node.Decode(&m); err != nil {
			return err
		}
		*p = ByCondition(m)
		return nil
	}

	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*p = Scalar(v)
	return nil
}

// IsSet reports whether a value was given.
func (p PerCondition[T]) IsSet() bool { return p.set }

// For returns the value of condition, or def when none was given.
func (p PerCondition[T]) For(condition string, def T) T {
	if !p.set {
		return def
	}
	if p.byName == nil {
		return p.all
	}
	if v, ok := p.byName[condition]; ok {
		return v
	}
	return def
}

func (p PerCondition[T]) check(field string, conditions []string) error {
	if p.byName == nil {
		return nil
	}

	keys := slices.Sorted(maps.Keys(p.byName))
	want := slices.Sorted(slices.Values(conditions))
	if !slices.Equal(keys, want) {
		return fmt.Errorf("%w: %s has %v, conditions are %v", ErrConfigurationMismatch, field, keys, want)
	}
	return nil
}

// Condition is one sample with its replicate exports stored under
// <root>/<dir>/replicate<N>/<export>.
type Condition struct {
	Name       string `yaml:"name"`
	Dir        string `yaml:"dir"`
	Replicates []int  `yaml:"replicates"`
}

// TimeCourse describes one export holding a series of measurements: rows
// 1..points-1 are the time points and rows points+1..points+positions-1
// the intensity scan.
type TimeCourse struct {
	File      string `yaml:"file"`
	Points    int    `yaml:"points"`
	Positions int    `yaml:"positions"`
	Condition string `yaml:"condition"`
}

// Optics mirrors rheology.Optics with YAML names.
type Optics struct {
	RefractiveIndex float64 `yaml:"refractive_index"`
	AngleDegrees    float64 `yaml:"angle_degrees"`
	WavelengthNM    float64 `yaml:"wavelength_nm"`
}

// Output selects the artifacts of a run.
type Output struct {
	Parquet     string `yaml:"parquet"`
	Compression string `yaml:"compression"`
	Plots       string `yaml:"plots"`
}

// Config is the YAML batch description.
type Config struct {
	Export     string      `yaml:"export"`
	Root       string      `yaml:"root"`
	Conditions []Condition `yaml:"conditions"`
	TimeCourse *TimeCourse `yaml:"time_course"`

	Temperature PerCondition[float64] `yaml:"temperature"`
	Radius      PerCondition[float64] `yaml:"radius"`
	Ergodic     PerCondition[bool]    `yaml:"ergodic"`
	Leakage     PerCondition[float64] `yaml:"leakage"`
	Laplace     PerCondition[bool]    `yaml:"laplace"`

	Optics          *Optics   `yaml:"optics"`
	UseInstrumentG1 *bool     `yaml:"use_instrument_g1"`
	Columns         []string  `yaml:"columns"`
	WindowStart     float64   `yaml:"window_start"`
	WindowEnds      []float64 `yaml:"window_ends"`
	MSDBandwidth    float64   `yaml:"msd_bandwidth"`
	LaplaceBW       float64   `yaml:"laplace_bandwidth"`
	FitIterations   int       `yaml:"fit_max_iterations"`
	Workers         int       `yaml:"workers"`

	Output Output `yaml:"output"`
}

// Defaults for unset per-condition values: 37 °C and 500 nm diameter probes.
const (
	DefaultTemperature = 310.15
	DefaultRadius      = 250.0
)

// DecodeConfig parses and validates a YAML batch description.
func DecodeConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("batch: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads a YAML batch description from path. A relative root is
// resolved against the directory of path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	if cfg.Root != "" && !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(base, cfg.Root)
	} else if cfg.Root == "" {
		cfg.Root = base
	}
	if cfg.TimeCourse != nil && !filepath.IsAbs(cfg.TimeCourse.File) {
		cfg.TimeCourse.File = filepath.Join(base, cfg.TimeCourse.File)
	}
	return cfg, nil
}

// ConditionNames returns the condition names in configured order.
func (c *Config) ConditionNames() []string {
	if c.TimeCourse != nil {
		return []string{c.timeCourseName()}
	}
	names := make([]string, len(c.Conditions))
	for i, cond := range c.Conditions {
		names[i] = cond.Name
	}
	return names
}

func (c *Config) timeCourseName() string {
	if c.TimeCourse.Condition != "" {
		return c.TimeCourse.Condition
	}
	return "time_course"
}

// Validate checks the layout and that every per-condition map names
// exactly the configured conditions.
func (c *Config) Validate() error {
	switch {
	case c.TimeCourse != nil && len(c.Conditions) > 0:
		return fmt.Errorf("%w: conditions and time_course are exclusive", ErrInvalidConfig)
	case c.TimeCourse != nil:
		tc := c.TimeCourse
		if tc.File == "" || tc.Points < 2 || tc.Positions < 1 {
			return fmt.Errorf("%w: time_course needs file, points >= 2 and positions >= 1", ErrInvalidConfig)
		}
	case len(c.Conditions) == 0:
		return fmt.Errorf("%w: no conditions", ErrInvalidConfig)
	default:
		if c.Export == "" {
			return fmt.Errorf("%w: export file name is empty", ErrInvalidConfig)
		}
		seen := map[string]bool{}
		for _, cond := range c.Conditions {
			if cond.Name == "" || len(cond.Replicates) == 0 {
				return fmt.Errorf("%w: condition %q needs a name and replicates", ErrInvalidConfig, cond.Name)
			}
			if seen[cond.Name] {
				return fmt.Errorf("%w: duplicate condition %q", ErrInvalidConfig, cond.Name)
			}
			seen[cond.Name] = true
		}
	}

	names := c.ConditionNames()
	for _, chk := range []struct {
		field string
		check func(string, []string) error
	}{
		{"temperature", c.Temperature.check},
		{"radius", c.Radius.check},
		{"ergodic", c.Ergodic.check},
		{"leakage", c.Leakage.check},
		{"laplace", c.Laplace.check},
	} {
		if err := chk.check(chk.field, names); err != nil {
			return err
		}
	}

	if c.Output.Compression != "" {
		if err := store.Compression(c.Output.Compression); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// AnalyzerOptions returns the analysis settings of condition.
func (c *Config) AnalyzerOptions(condition string) []rheology.Option {
	opts := []rheology.Option{
		rheology.WithTemperature(c.Temperature.For(condition, DefaultTemperature)),
		rheology.WithRadius(c.Radius.For(condition, DefaultRadius)),
		rheology.WithLaplace(c.Laplace.For(condition, false)),
		rheology.WithCorrection(c.correction(condition)),
	}

	if c.Optics != nil {
		opts = append(opts, rheology.WithOptics(rheology.Optics(*c.Optics)))
	}
	if len(c.WindowEnds) > 0 {
		start := c.WindowStart
		if start == 0 {
			start = rheology.DefaultConfig().WindowStart
		}
		opts = append(opts, rheology.WithWindows(start, c.WindowEnds))
	}
	if c.MSDBandwidth > 0 {
		opts = append(opts, rheology.WithMSDBandwidth(c.MSDBandwidth))
	}
	if c.LaplaceBW > 0 {
		opts = append(opts, rheology.WithLaplaceBandwidth(c.LaplaceBW))
	}
	if c.FitIterations > 0 {
		opts = append(opts, rheology.WithFitMaxIterations(c.FitIterations))
	}
	return opts
}

func (c *Config) correction(condition string) rheology.Correction {
	if c.Ergodic.For(condition, true) {
		return rheology.Ergodic()
	}
	if c.Leakage.IsSet() {
		if eps, ok := c.leakage(condition); ok {
			return rheology.NonErgodicLeakage(eps)
		}
	}
	return rheology.NonErgodic()
}

func (c *Config) leakage(condition string) (float64, bool) {
	if c.Leakage.byName == nil {
		return c.Leakage.all, true
	}
	eps, ok := c.Leakage.byName[condition]
	return eps, ok
}

// Jobs plans one job per replicate (condition layout) or per time point
// (time course layout), in configured order. IDs count up from zero.
func (c *Config) Jobs() ([]Job, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var jobs []Job
	if tc := c.TimeCourse; tc != nil {
		name := c.timeCourseName()
		opts := c.AnalyzerOptions(name)
		intensityRows := zetasizer.RowRange(tc.Points+1, tc.Points+tc.Positions)
		for tp := 1; tp < tc.Points; tp++ {
			jobs = append(jobs, Job{
				Key:           store.Key{Condition: name, Replicate: 1, TimePoint: tp, ID: len(jobs)},
				Path:          tc.File,
				Row:           tp,
				IntensityRows: intensityRows,
				Options:       opts,
			})
		}
		return jobs, nil
	}

	for _, cond := range c.Conditions {
		opts := c.AnalyzerOptions(cond.Name)
		for _, rep := range cond.Replicates {
			jobs = append(jobs, Job{
				Key:     store.Key{Condition: cond.Name, Replicate: rep, ID: len(jobs)},
				Path:    filepath.Join(c.Root, cond.Dir, "replicate"+strconv.Itoa(rep), c.Export),
				Options: opts,
			})
		}
	}
	return jobs, nil
}

// RunnerOptions returns the runner settings of the description.
func (c *Config) RunnerOptions() []Option {
	opts := []Option{WithPlotDir(c.Output.Plots)}
	if c.Workers > 0 {
		opts = append(opts, WithWorkers(c.Workers))
	}
	if c.UseInstrumentG1 != nil {
		opts = append(opts, WithInstrumentG1(*c.UseInstrumentG1))
	}
	if len(c.Columns) > 0 {
		opts = append(opts, WithColumns(c.Columns...))
	}
	return opts
}
