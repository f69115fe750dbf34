package overlay

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gubarz/surveymd/internal/survey"
)

// File is the on-disk form of an overlay
type File struct {
	Document string   `yaml:"document,omitempty"` // Title of the source document
	Consumer string   `yaml:"consumer"`
	Included []string `yaml:"included"`
}

// Snapshot captures ov for saving. A consumer identity is minted when
// consumer is empty.
func Snapshot(doc *survey.Document, ov *Overlay, consumer string) *File {
	if consumer == "" {
		consumer = uuid.NewString()
	}
	return &File{
		Document: doc.Title,
		Consumer: consumer,
		Included: ov.Included(),
	}
}

// Apply builds the overlay the file describes over doc
func (f *File) Apply(doc *survey.Document) (*Overlay, error) {
	return FromIncluded(doc, f.Included)
}

// Load reads an overlay file. A missing file returns nil and no error.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing overlay %s: %w", path, err)
	}
	if f.Consumer != "" {
		if _, err := uuid.Parse(f.Consumer); err != nil {
			return nil, fmt.Errorf("overlay %s: consumer %q is not a UUID", path, f.Consumer)
		}
	}
	return &f, nil
}

// Save writes f to path, creating parent directories
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
