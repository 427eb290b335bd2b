package task

import (
	"fmt"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
)

// Request is a catalog template: what is asked for and how it is called.
type Request struct {
	Material string `yaml:"material"`
	Name     string `yaml:"name"`
}

// Catalog holds the pools candidates are drawn from.
type Catalog struct {
	Requests []Request `yaml:"requests"`
	// Clients name the requesters of single tasks.
	Clients []string `yaml:"clients"`
	// Destinations name the requesters of composite tasks.
	Destinations []string `yaml:"destinations"`
}

// DefaultCatalog returns the stock farm catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Requests: []Request{
			{"BREAD", "Pane"},
			{"WHEAT", "Grano"},
			{"APPLE", "Mela"},
			{"MILK_BUCKET", "Latte"},
			{"BAKED_POTATO", "Patata al forno"},
			{"BEEF", "Bistecca cruda"},
			{"BEETROOT", "Barbabietola"},
			{"BEETROOT_SOUP", "Zuppa di barbabietola"},
			{"CAKE", "Torta"},
			{"CARROT", "Carota"},
			{"CHICKEN", "Pollo crudo"},
			{"COOKED_BEEF", "Bistecca cotta"},
			{"COOKED_CHICKEN", "Pollo cotto"},
			{"COOKED_COD", "Merluzzo cotto"},
			{"COOKED_MUTTON", "Carne di montone cotta"},
			{"COOKED_PORKCHOP", "Bistecca di maiale cotta"},
			{"COOKED_RABBIT", "Coniglio cotto"},
			{"COOKED_SALMON", "Salmone cotto"},
			{"COOKIE", "Biscotto"},
			{"COD", "Merluzzo crudo"},
			{"MELON_SLICE", "Fetta di melone"},
			{"MUSHROOM_STEW", "Zuppa di funghi"},
			{"MUTTON", "Carne di montone cruda"},
			{"PORKCHOP", "Bistecca di maiale cruda"},
			{"POTATO", "Patata"},
			{"PUMPKIN_PIE", "Torta di zucca"},
			{"RABBIT", "Coniglio crudo"},
			{"RABBIT_STEW", "Zuppa di coniglio"},
			{"SALMON", "Salmone crudo"},
			{"SWEET_BERRIES", "Bacche dolci"},
		},
		Clients: []string{
			"Greg", "Tom", "Bartolo", "Lucia", "Amanda", "Armandino",
			"Pietro", "Heidi", "Gerardo", "Massimo", "Salvatore", "Gennaro",
			"Christian", "Antonio", "Angelo", "Andrea", "Alice", "Bob",
			"Niccolò", "Shippino", "Nicolino", "Raffaele", "Claudio", "Sceriffo",
		},
		Destinations: []string{
			"Asilo", "Scuola elementare", "Scuola media", "Chiesa",
			"Comune", "Centro anziani", "Parco giochi", "Stadio",
		},
	}
}

// Empty reports whether any pool is missing.
func (c Catalog) Empty() bool {
	return len(c.Requests) == 0 || len(c.Clients) == 0 || len(c.Destinations) == 0
}

// Validate checks that every pool is filled and every name can be encoded
// in a task line.
func (c Catalog) Validate() error {
	if c.Empty() {
		return ferrors.ValidationError("catalog needs requests, clients and destinations").Build()
	}
	for i, r := range c.Requests {
		if err := checkName(fmt.Sprintf("requests[%d].material", i), r.Material); err != nil {
			return err
		}
		if err := checkName(fmt.Sprintf("requests[%d].name", i), r.Name); err != nil {
			return err
		}
	}
	for i, name := range c.Clients {
		if err := checkName(fmt.Sprintf("clients[%d]", i), name); err != nil {
			return err
		}
	}
	for i, name := range c.Destinations {
		if err := checkName(fmt.Sprintf("destinations[%d]", i), name); err != nil {
			return err
		}
	}
	return nil
}
