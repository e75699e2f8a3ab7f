package scenario

import (
	"fmt"
	"image"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlScenario is the YAML structure for scenario definitions.
type yamlScenario struct {
	Name                 string              `yaml:"name"`
	DetectionQuality     int                 `yaml:"detectionQuality,omitempty"`
	RandomizeActions     bool                `yaml:"randomizeActions,omitempty"`
	EndConditionOperator string              `yaml:"endConditionOperator,omitempty"`
	Events               []yamlEvent         `yaml:"events"`
	EndConditions        []yamlEndCondition  `yaml:"endConditions,omitempty"`
}

type yamlEvent struct {
	ID                string          `yaml:"id"`
	Name              string          `yaml:"name,omitempty"`
	ConditionOperator string          `yaml:"conditionOperator,omitempty"`
	Enabled           *bool           `yaml:"enabled,omitempty"`
	Conditions        []yamlCondition `yaml:"conditions"`
	Actions           []yamlAction    `yaml:"actions,omitempty"`
}

type yamlCondition struct {
	Name             string   `yaml:"name,omitempty"`
	Template         string   `yaml:"template"`
	Area             yamlArea `yaml:"area,omitempty"`
	DetectionType    string   `yaml:"detectionType"`
	Threshold        int      `yaml:"threshold"`
	ShouldBeDetected *bool    `yaml:"shouldBeDetected,omitempty"`
}

type yamlArea struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type yamlAction struct {
	Type                string   `yaml:"type"`
	X                   int      `yaml:"x,omitempty"`
	Y                   int      `yaml:"y,omitempty"`
	ToX                 int      `yaml:"toX,omitempty"`
	ToY                 int      `yaml:"toY,omitempty"`
	Duration            duration `yaml:"duration,omitempty"`
	UseDetectedPosition bool     `yaml:"useDetectedPosition,omitempty"`
}

type yamlEndCondition struct {
	Event         string `yaml:"event"`
	MaxExecutions int    `yaml:"maxExecutions"`
}

// duration is a wrapper for time.Duration that handles YAML parsing.
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Loader handles loading scenario definitions from various sources.
type Loader struct {
	registry *Registry
}

// NewLoader creates a new scenario loader that populates the given registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// LoadFromFS loads scenario definitions from an embedded or real filesystem.
// It expects YAML files in a "scenarios" subdirectory.
func (l *Loader) LoadFromFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, "scenarios")
	if err != nil {
		return fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		if err := l.loadFile(fsys, "scenarios/"+entry.Name()); err != nil {
			return err
		}
	}

	return nil
}

// loadFile loads a single scenario definition file.
func (l *Loader) loadFile(fsys fs.FS, path string) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	scn, err := Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}

	l.registry.Register(scn)
	return nil
}

// Parse decodes and validates a single YAML scenario definition.
func Parse(data []byte) (*Scenario, error) {
	var ys yamlScenario
	if err := yaml.Unmarshal(data, &ys); err != nil {
		return nil, err
	}

	scn, err := convertYAMLScenario(&ys)
	if err != nil {
		return nil, err
	}
	if err := scn.Validate(); err != nil {
		return nil, err
	}
	return scn, nil
}

func convertYAMLScenario(ys *yamlScenario) (*Scenario, error) {
	endOp := OperatorOr
	if ys.EndConditionOperator != "" {
		op, err := parseOperator(ys.EndConditionOperator)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", ys.Name, err)
		}
		endOp = op
	}

	scn := &Scenario{
		Name:                 ys.Name,
		DetectionQuality:     ys.DetectionQuality,
		RandomizeActions:     ys.RandomizeActions,
		EndConditionOperator: endOp,
		Events:               make([]*Event, len(ys.Events)),
		EndConditions:        make([]*EndCondition, len(ys.EndConditions)),
	}

	for i := range ys.Events {
		ev, err := convertYAMLEvent(&ys.Events[i])
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", ys.Name, err)
		}
		scn.Events[i] = ev
	}

	for i, yec := range ys.EndConditions {
		scn.EndConditions[i] = &EndCondition{
			EventID:       yec.Event,
			MaxExecutions: yec.MaxExecutions,
		}
	}

	return scn, nil
}

func convertYAMLEvent(ye *yamlEvent) (*Event, error) {
	condOp := OperatorAnd
	if ye.ConditionOperator != "" {
		op, err := parseOperator(ye.ConditionOperator)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", ye.ID, err)
		}
		condOp = op
	}

	ev := &Event{
		ID:                ye.ID,
		Name:              ye.Name,
		ConditionOperator: condOp,
		Enabled:           true,
		Conditions:        make([]*Condition, len(ye.Conditions)),
		Actions:           make([]Action, len(ye.Actions)),
	}
	if ye.Enabled != nil {
		ev.Enabled = *ye.Enabled
	}

	for i := range ye.Conditions {
		cond, err := convertYAMLCondition(&ye.Conditions[i])
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", ye.ID, err)
		}
		ev.Conditions[i] = cond
	}

	for i, ya := range ye.Actions {
		ev.Actions[i] = Action{
			Type:                ActionType(ya.Type),
			X:                   ya.X,
			Y:                   ya.Y,
			ToX:                 ya.ToX,
			ToY:                 ya.ToY,
			Duration:            time.Duration(ya.Duration),
			UseDetectedPosition: ya.UseDetectedPosition,
		}
	}

	return ev, nil
}

func convertYAMLCondition(yc *yamlCondition) (*Condition, error) {
	dt, err := parseDetectionType(yc.DetectionType)
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", yc.Name, err)
	}

	cond := &Condition{
		Name:             yc.Name,
		TemplateID:       yc.Template,
		Area:             image.Rect(yc.Area.X, yc.Area.Y, yc.Area.X+yc.Area.Width, yc.Area.Y+yc.Area.Height),
		DetectionType:    dt,
		Threshold:        yc.Threshold,
		ShouldBeDetected: true,
	}
	if yc.ShouldBeDetected != nil {
		cond.ShouldBeDetected = *yc.ShouldBeDetected
	}
	return cond, nil
}

func parseOperator(s string) (Operator, error) {
	switch strings.ToUpper(s) {
	case "AND":
		return OperatorAnd, nil
	case "OR":
		return OperatorOr, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", s)
	}
}

func parseDetectionType(s string) (DetectionType, error) {
	switch strings.ToLower(s) {
	case "exact":
		return DetectExact, nil
	case "wholescreen", "whole_screen":
		return DetectWholeScreen, nil
	default:
		return 0, fmt.Errorf("unknown detection type %q", s)
	}
}
