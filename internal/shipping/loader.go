package shipping

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

// Loader fetches the raw shipping-fee rows.
type Loader interface {
	LoadFeeTable(ctx context.Context) ([]domain.ShippingFeeEntry, error)
}

// SeedFile is the YAML layout read by FileLoader.
type SeedFile struct {
	Fees []domain.ShippingFeeEntry `yaml:"fees"`
}

// FileLoader reads the fee table from a YAML seed file.
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for the YAML file at path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Path returns the seed file location.
func (l *FileLoader) Path() string { return l.path }

// LoadFeeTable implements Loader.
func (l *FileLoader) LoadFeeTable(context.Context) ([]domain.ShippingFeeEntry, error) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read shipping seed file: %w", err)
	}
	seed, err := ParseSeed(content)
	if err != nil {
		return nil, err
	}
	return seed.Fees, nil
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(content []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return nil, fmt.Errorf("parse shipping seed file: %w", err)
	}
	return &seed, nil
}
