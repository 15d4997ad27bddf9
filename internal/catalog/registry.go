package catalog

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

// Registry is the service catalog fetched from the state repository. It gates
// which services may be promoted and provides the scaffold order for fresh
// preview documents.
type Registry struct {
	Services []RegistryService `yaml:"services"`
}

// RegistryService declares one promotable service. HelmParams are carried for
// the preview tooling that consumes the registry downstream; promoter parses
// them but never interprets them.
type RegistryService struct {
	Name       string      `yaml:"name"`
	HelmParams []HelmParam `yaml:"helm_params,omitempty"`
}

// HelmParam is a templated Helm value attached to a service.
type HelmParam struct {
	Name          string `yaml:"name"`
	ValueTemplate string `yaml:"value_template,omitempty"`
}

// ParseRegistry parses the services.yaml registry file.
func ParseRegistry(data []byte) (*Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var reg Registry
	if err := dec.Decode(&reg); err != nil {
		return nil, errors.DecodeError("malformed service registry", err)
	}
	if len(reg.Services) == 0 {
		return nil, errors.DecodeError("service registry lists no services", nil)
	}

	seen := make(map[string]struct{}, len(reg.Services))
	for _, svc := range reg.Services {
		if svc.Name == "" {
			return nil, errors.DecodeError("service registry entry has empty name", nil)
		}
		if _, dup := seen[svc.Name]; dup {
			return nil, errors.DecodeError(fmt.Sprintf("duplicate service %q in registry", svc.Name), nil)
		}
		seen[svc.Name] = struct{}{}
	}

	return &reg, nil
}

// Names returns the service names in catalog order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.Services))
	for i, svc := range r.Services {
		names[i] = svc.Name
	}
	return names
}

// Has reports whether the registry knows the named service.
func (r *Registry) Has(name string) bool {
	for _, svc := range r.Services {
		if svc.Name == name {
			return true
		}
	}
	return false
}

// Resolve validates a requested service against the registry. Unknown services
// fail closed with the full known catalog attached for diagnostics; nothing is
// ever auto-registered.
func (r *Registry) Resolve(name string) error {
	if r.Has(name) {
		return nil
	}
	return errors.ValidationError(fmt.Sprintf("service %q is not in the registry", name), nil).
		WithContext("service", name).
		WithContext("available", strings.Join(r.Names(), ", "))
}
