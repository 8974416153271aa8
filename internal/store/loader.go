package store

import (
	"log"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/phrase"
)

// LoadTemplates assembles recognition templates from stored gestures and
// their recorded samples, in registration order. Samples that fail to parse
// are skipped with a log line; a gesture with no usable samples is still
// returned so it shows up in status output.
func (s *Store) LoadTemplates() ([]gesture.Template, error) {
	gestures, err := s.Gestures().List()
	if err != nil {
		return nil, err
	}

	samples := s.Samples()
	templates := make([]gesture.Template, 0, len(gestures))
	for _, g := range gestures {
		tmpl := gesture.Template{ID: g.ID, Name: g.Name}

		recorded, err := samples.GetByGestureID(g.ID)
		if err != nil {
			return nil, err
		}
		for _, rec := range recorded {
			frames, err := gesture.ParseSample(rec.Data)
			if err != nil {
				log.Printf("store: gesture %q sample %d unusable: %v", g.Name, rec.SampleIndex, err)
				continue
			}
			tmpl.Samples = append(tmpl.Samples, frames)
		}

		templates = append(templates, tmpl)
	}

	return templates, nil
}

// LoadPhrases assembles phrase definitions in registration order.
func (s *Store) LoadPhrases() ([]phrase.Definition, error) {
	stored, err := s.Phrases().List()
	if err != nil {
		return nil, err
	}

	defs := make([]phrase.Definition, 0, len(stored))
	for _, p := range stored {
		defs = append(defs, phrase.Definition{
			ID:          p.ID,
			Name:        p.Name,
			Gestures:    p.Gestures,
			Translation: p.Translation,
		})
	}

	return defs, nil
}
