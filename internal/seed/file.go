package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/draftroom/internal/engine"
)

// draftFile is the on-disk draft description.
type draftFile struct {
	Rounds       int               `yaml:"rounds,omitempty"`
	OrderStyle   string            `yaml:"order_style,omitempty"`
	Participants []fileParticipant `yaml:"participants"`
	Items        []fileItem        `yaml:"items"`
	Order        []engine.TurnSlot `yaml:"order,omitempty"`
}

type fileParticipant struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type fileItem struct {
	ID         int               `yaml:"id"`
	Name       string            `yaml:"name"`
	Categories []string          `yaml:"categories,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

type FileSource struct {
	Path     string
	Defaults OrderDefaults // used when the file sets neither order nor rounds/style
}

func (f FileSource) Load(ctx context.Context) (Seed, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data, f.Defaults)
}

// Parse decodes a YAML draft description.
func Parse(data []byte, defaults OrderDefaults) (Seed, error) {
	var df draftFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return Seed{}, fmt.Errorf("parse seed file: %w", err)
	}

	s := Seed{
		Items:        make([]engine.Item, 0, len(df.Items)),
		Participants: make([]engine.Participant, 0, len(df.Participants)),
		Order:        df.Order,
	}
	for _, p := range df.Participants {
		s.Participants = append(s.Participants, engine.Participant{ID: p.ID, Name: p.Name})
	}
	for _, it := range df.Items {
		s.Items = append(s.Items, engine.Item{
			ID:         it.ID,
			Name:       it.Name,
			Categories: it.Categories,
			Attributes: it.Attributes,
		})
	}

	if df.Rounds > 0 {
		defaults.Rounds = df.Rounds
	}
	if df.OrderStyle != "" {
		style, err := engine.ParseOrderStyle(df.OrderStyle)
		if err != nil {
			return Seed{}, err
		}
		defaults.Style = style
	}
	if err := s.fillOrder(defaults); err != nil {
		return Seed{}, err
	}
	return s, nil
}
