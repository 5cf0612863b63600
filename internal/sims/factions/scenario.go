package factions

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"goi/internal/core"
)

const scenarioSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rows", "cols", "world"],
  "additionalProperties": false,
  "properties": {
    "name":        {"type": "string"},
    "rows":        {"type": "integer", "minimum": 0},
    "cols":        {"type": "integer", "minimum": 0},
    "generations": {"type": "integer", "minimum": 0},
    "threads":     {"type": "integer", "minimum": 1},
    "world":       {"$ref": "#/$defs/rows"},
    "invasions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["generation", "plan"],
        "additionalProperties": false,
        "properties": {
          "generation": {"type": "integer", "minimum": 1},
          "plan":       {"$ref": "#/$defs/rows"}
        }
      }
    }
  },
  "$defs": {
    "rows": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[0-9.]*$"}
    }
  }
}`

var compiledScenarioSchema = jsonschema.MustCompileString("scenario.schema.json", scenarioSchema)

// Scenario is the on-disk description of a run: the start world as one
// string of faction digits per row ('.' or '0' for dead) plus invasions.
type Scenario struct {
	Name        string             `json:"name"`
	Rows        int                `json:"rows"`
	Cols        int                `json:"cols"`
	Generations int                `json:"generations"`
	Threads     int                `json:"threads"`
	World       []string           `json:"world"`
	Invasions   []ScenarioInvasion `json:"invasions"`
}

// ScenarioInvasion is one scheduled invasion inside a Scenario.
type ScenarioInvasion struct {
	Generation int      `json:"generation"`
	Plan       []string `json:"plan"`
}

// LoadScenario reads a YAML or JSON scenario file.
func LoadScenario(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	sc, err := ParseScenario(raw)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and schema-checks a YAML or JSON scenario document.
func ParseScenario(raw []byte) (Scenario, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	// Round-trip through JSON so the validator sees JSON-native types.
	js, err := json.Marshal(doc)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	var generic any
	if err := json.Unmarshal(js, &generic); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	if err := compiledScenarioSchema.Validate(generic); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	var sc Scenario
	if err := json.Unmarshal(js, &sc); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	return sc, nil
}

// Input converts the scenario to a runnable Input. Thread count defaults to 1.
func (s Scenario) Input() (Input, error) {
	start, err := parseRows(s.Rows, s.Cols, s.World)
	if err != nil {
		return Input{}, fmt.Errorf("world: %w", err)
	}
	schedule := make(Schedule, 0, len(s.Invasions))
	for i, inv := range s.Invasions {
		plan, err := parseRows(s.Rows, s.Cols, inv.Plan)
		if err != nil {
			return Input{}, fmt.Errorf("invasion %d: %w", i, err)
		}
		schedule = append(schedule, Invasion{Generation: inv.Generation, Plan: plan})
	}
	threads := s.Threads
	if threads < 1 {
		threads = 1
	}
	return Input{Start: start, Generations: s.Generations, Schedule: schedule, Threads: threads}, nil
}

// FormatRows renders a grid in the scenario row format.
func FormatRows(g *core.Grid) []string {
	out := make([]string, g.Rows)
	var b strings.Builder
	for row := 0; row < g.Rows; row++ {
		b.Reset()
		for col := 0; col < g.Cols; col++ {
			v := g.At(row, col)
			if v == int(core.Dead) {
				b.WriteByte('.')
				continue
			}
			b.WriteByte(byte('0' + v))
		}
		out[row] = b.String()
	}
	return out
}

func parseRows(rows, cols int, lines []string) (*core.Grid, error) {
	if len(lines) != rows {
		return nil, fmt.Errorf("%w: %d rows given, want %d", ErrDimensions, len(lines), rows)
	}
	g := core.NewGrid(rows, cols)
	for row, line := range lines {
		if len(line) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrDimensions, row, len(line), cols)
		}
		for col := 0; col < cols; col++ {
			ch := line[col]
			switch {
			case ch == '.':
			case ch >= '0' && ch <= '9':
				g.Set(row, col, core.Faction(ch-'0'))
			default:
				return nil, fmt.Errorf("%w: row %d col %d holds %q", ErrFactionRange, row, col, ch)
			}
		}
	}
	return g, nil
}
