package loader

import (
	"fmt"
	"os"

	"github.com/openziti/pandapi/kernel/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type FleetYaml struct {
	Fleet   FleetHeaderYaml `yaml:"fleet"`
	Servers []ServerYaml    `yaml:"servers"`
}

type FleetHeaderYaml struct {
	Id string `yaml:"id"`
}

type ServerYaml struct {
	Name     string `yaml:"name"`
	Cpus     int    `yaml:"cpus"`
	MemoryGB int    `yaml:"memoryGB"`
	DiskGB   int    `yaml:"diskGB"`
	Replicas int    `yaml:"replicas"`
}

// Fleet is a validated set of server specs ready to be provisioned.
type Fleet struct {
	Id      string
	Servers []model.Server
}

func LoadFleet(path string) (*Fleet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read fleet [%s]", path)
	}
	fleet, err := ParseFleet(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid fleet [%s]", path)
	}
	return fleet, nil
}

// ParseFleet decodes a fleet document, expanding replicas into
// individually named servers named <name>-1 .. <name>-N.
func ParseFleet(data []byte) (*Fleet, error) {
	var doc FleetYaml
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unable to parse fleet")
	}
	if doc.Fleet.Id == "" {
		return nil, errors.New("fleet id is required")
	}
	if len(doc.Servers) == 0 {
		return nil, errors.Errorf("fleet '%s' declares no servers", doc.Fleet.Id)
	}

	fleet := &Fleet{Id: doc.Fleet.Id}
	seen := make(map[string]bool)
	for i, s := range doc.Servers {
		if s.Replicas < 0 {
			return nil, errors.Errorf("servers[%d]: replicas must not be negative", i)
		}
		for _, name := range s.names() {
			spec := model.Server{Name: name, Cpus: s.Cpus, MemoryGB: s.MemoryGB, DiskGB: s.DiskGB}
			if err := spec.ValidateForCreate(); err != nil {
				return nil, errors.Wrapf(err, "servers[%d]", i)
			}
			if seen[name] {
				return nil, errors.Errorf("servers[%d]: duplicate server name '%s'", i, name)
			}
			seen[name] = true
			fleet.Servers = append(fleet.Servers, spec)
		}
	}
	return fleet, nil
}

func (s ServerYaml) names() []string {
	if s.Replicas <= 1 {
		return []string{s.Name}
	}
	names := make([]string, 0, s.Replicas)
	for i := 1; i <= s.Replicas; i++ {
		names = append(names, fmt.Sprintf("%s-%d", s.Name, i))
	}
	return names
}
