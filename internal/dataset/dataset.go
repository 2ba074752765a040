// Package dataset embeds the demonstration graph and its verification
// battery.
package dataset

import (
	"bytes"
	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/infobarbosa/janusgraph-lab/internal/harness"
	"github.com/infobarbosa/janusgraph-lab/internal/seeder"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

//go:embed demo.yaml
var demoPlan []byte

//go:embed battery.yaml
var demoBattery []byte

// Demo returns the demonstration plan: ten people, five companies and
// fourteen relationship facts stored as fifteen edges.
func Demo() (*seeder.Plan, error) {
	return seeder.LoadPlan(bytes.NewReader(demoPlan))
}

// DemoBattery returns the checks that verify a freshly seeded Demo graph.
func DemoBattery() (harness.Battery, error) {
	return LoadBattery(demoBattery)
}

// LoadBattery decodes a YAML battery.
func LoadBattery(data []byte) (harness.Battery, error) {
	var b harness.Battery
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return harness.Battery{}, types.WrapError(types.DATASET_LOAD_FAILED, "failed to decode battery", err)
	}
	if len(b.Checks) == 0 {
		return harness.Battery{}, types.NewError(types.DATASET_INVALID, "battery has no checks")
	}
	return b, nil
}
