// Package seed loads warehouse catalog datasets from YAML.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/wmsexpress/backend/internal/domain/warehouse"
	"gopkg.in/yaml.v3"
)

// ErrSeedNotFound is returned when the seed file does not exist.
var ErrSeedNotFound = errors.New("seed: dataset file not found")

//go:embed catalog.yaml
var builtin []byte

// clientDoc is the YAML shape of one client.
type clientDoc struct {
	ID             int      `yaml:"id"`
	Name           string   `yaml:"name"`
	Receipts       []string `yaml:"receipts"`
	PurchaseOrders []string `yaml:"purchase_orders"`
}

// linkDoc is the YAML shape of one receipt to purchase order link.
type linkDoc struct {
	Receipt       string `yaml:"receipt"`
	PurchaseOrder string `yaml:"purchase_order"`
}

// document is the root of a seed file.
type document struct {
	Clients []clientDoc `yaml:"clients"`
	Links   []linkDoc   `yaml:"links"`
}

// Builtin returns the dataset compiled into the binary.
func Builtin() (warehouse.Dataset, error) {
	return Parse(builtin)
}

// LoadFile reads a dataset from path. An empty path yields the built-in dataset.
func LoadFile(path string) (warehouse.Dataset, error) {
	if path == "" {
		return Builtin()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return warehouse.Dataset{}, fmt.Errorf("%w: %s", ErrSeedNotFound, path)
		}
		return warehouse.Dataset{}, fmt.Errorf("seed: failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML dataset. Unknown fields are rejected. The result is not
// validated; pass it to warehouse.NewCatalog for that.
func Parse(data []byte) (warehouse.Dataset, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return warehouse.Dataset{}, fmt.Errorf("seed: failed to parse dataset: %w", err)
	}

	ds := warehouse.Dataset{
		Clients: make([]warehouse.Client, 0, len(doc.Clients)),
		Links:   make([]warehouse.ReceiptLink, 0, len(doc.Links)),
	}
	for _, c := range doc.Clients {
		ds.Clients = append(ds.Clients, warehouse.Client{
			ID:             c.ID,
			Name:           c.Name,
			Receipts:       nonNil(c.Receipts),
			PurchaseOrders: nonNil(c.PurchaseOrders),
		})
	}
	for _, l := range doc.Links {
		ds.Links = append(ds.Links, warehouse.ReceiptLink{
			Receipt:       l.Receipt,
			PurchaseOrder: l.PurchaseOrder,
		})
	}
	return ds, nil
}

// Marshal encodes a dataset in the seed file format.
func Marshal(ds warehouse.Dataset) ([]byte, error) {
	doc := document{
		Clients: make([]clientDoc, 0, len(ds.Clients)),
		Links:   make([]linkDoc, 0, len(ds.Links)),
	}
	for _, c := range ds.Clients {
		doc.Clients = append(doc.Clients, clientDoc{
			ID:             c.ID,
			Name:           c.Name,
			Receipts:       c.Receipts,
			PurchaseOrders: c.PurchaseOrders,
		})
	}
	for _, l := range ds.Links {
		doc.Links = append(doc.Links, linkDoc{Receipt: l.Receipt, PurchaseOrder: l.PurchaseOrder})
	}
	return yaml.Marshal(doc)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
