package ifo

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// ErrIFONotFound is returned when an id is not in the registry.
var ErrIFONotFound = errors.New("ifo not found")

// Currency is the token users commit to an IFO.
type Currency struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// IFO describes one offering contract.
type IFO struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Network  string   `yaml:"network"`
	Address  string   `yaml:"address"`
	Currency Currency `yaml:"currency"`
	Pools    []PoolID `yaml:"pools"`
	Active   bool     `yaml:"active"`
}

// HasPool reports whether the IFO runs pool p. An empty list means both.
func (i *IFO) HasPool(p PoolID) bool {
	if len(i.Pools) == 0 {
		return p == PoolBasic || p == PoolUnlimited
	}
	for _, x := range i.Pools {
		if x == p {
			return true
		}
	}
	return false
}

// Registry is the set of IFOs loaded from ifos.yaml.
type Registry struct {
	ifos []IFO
	byID map[string]*IFO
}

type registryFile struct {
	IFOs []IFO `yaml:"ifos"`
}

// LoadRegistry reads and validates an ifos.yaml file. A missing file yields
// an empty registry.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRegistry(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("reading ifo registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry parses registry YAML.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing ifo registry: %w", err)
	}
	return NewRegistry(f.IFOs)
}

// NewRegistry validates ifos and indexes them by id.
func NewRegistry(ifos []IFO) (*Registry, error) {
	r := &Registry{ifos: ifos, byID: make(map[string]*IFO, len(ifos))}
	for i := range r.ifos {
		x := &r.ifos[i]
		x.ID = strings.ToLower(strings.TrimSpace(x.ID))
		if x.ID == "" {
			return nil, fmt.Errorf("ifo #%d: missing id", i+1)
		}
		if _, dup := r.byID[x.ID]; dup {
			return nil, fmt.Errorf("ifo %q: duplicate id", x.ID)
		}
		if !common.IsHexAddress(x.Address) {
			return nil, fmt.Errorf("ifo %q: invalid contract address %q", x.ID, x.Address)
		}
		if !common.IsHexAddress(x.Currency.Address) {
			return nil, fmt.Errorf("ifo %q: invalid currency address %q", x.ID, x.Currency.Address)
		}
		if x.Currency.Decimals == 0 {
			x.Currency.Decimals = DefaultDecimals
		}
		if x.Name == "" {
			x.Name = x.ID
		}
		r.byID[x.ID] = x
	}
	return r, nil
}

// Get returns the IFO with the given id.
func (r *Registry) Get(id string) (*IFO, error) {
	x, ok := r.byID[strings.ToLower(id)]
	if !ok {
		return nil, ErrIFONotFound
	}
	return x, nil
}

// All returns every IFO, active ones first, then by id.
func (r *Registry) All() []IFO {
	out := make([]IFO, len(r.ifos))
	copy(out, r.ifos)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Active != out[j].Active {
			return out[i].Active
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// UnmarshalYAML lets pools be written as names or numbers.
func (p *PoolID) UnmarshalYAML(value *yaml.Node) error {
	id, err := ParsePoolID(value.Value)
	if err != nil {
		return err
	}
	*p = id
	return nil
}
