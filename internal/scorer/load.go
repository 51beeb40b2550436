package scorer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Tables extends the built-in name lists. Added given names join the common
// tier.
type Tables struct {
	FirstNames struct {
		Male   []string `yaml:"male"`
		Female []string `yaml:"female"`
		Unisex []string `yaml:"unisex"`
	} `yaml:"first_names"`
	LastNames struct {
		VeryCommon []string `yaml:"very_common"`
		Common     []string `yaml:"common"`
		OftenSeen  []string `yaml:"often_seen"`
	} `yaml:"last_names"`
}

// LoadTables reads a YAML table override file.
func LoadTables(path string) (Tables, error) {
	var t Tables
	data, err := os.ReadFile(path)
	if err != nil {
		return t, eris.Wrapf(err, "scorer: read tables %s", path)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, eris.Wrapf(err, "scorer: parse tables %s", path)
	}
	return t, nil
}
