package plans

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Plan is a purchasable credit tier.
type Plan struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"` // minor units
	Credits int64  `json:"credits"`
}

type plansFile struct {
	Plans []Plan `json:"plans"`
}

// Catalog holds the purchasable plans, loaded once at startup.
type Catalog struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

func NewCatalog() *Catalog {
	return &Catalog{plans: make(map[string]Plan)}
}

func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plans config: %w", err)
	}

	var file plansFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse plans config: %w", err)
	}

	catalog := NewCatalog()
	for _, p := range file.Plans {
		catalog.Register(p)
	}
	return catalog, nil
}

func (c *Catalog) Register(p Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[p.ID] = p
}

func (c *Catalog) Get(id string) (Plan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plans[id]
	return p, ok
}

func (c *Catalog) Exists(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// All returns the plans ordered by price, cheapest first.
func (c *Catalog) All() []Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Price < result[j].Price })
	return result
}
