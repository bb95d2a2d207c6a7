package scenario

import (
	"os"

	"gopkg.in/yaml.v3"

	"trackcheck/pkg/errors"
	"trackcheck/pkg/models"
)

// Scenario describes one module validation run: where to navigate, which
// module template to hold the tracking to, and which event types matter.
type Scenario struct {
	TCID        string `yaml:"tc_id"`
	Area        string `yaml:"area"`
	ModuleTitle string `yaml:"module_title"`
	URL         string `yaml:"url"`

	ProductCode string `yaml:"product_code"`
	Keyword     string `yaml:"keyword"`
	CategoryID  string `yaml:"category_id"`
	IsAd        string `yaml:"is_ad"`

	// EventTypes are template section keys (module_exposure, product_click,
	// ...) to validate, in order.
	EventTypes []string `yaml:"event_types"`
}

// Load reads and validates a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.ErrInternal.
			WithMessage("scenario file is not valid YAML").
			WithCause(err)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the fields a run cannot proceed without.
func (s *Scenario) Validate() error {
	switch {
	case s.Area == "":
		return errors.ErrInternal.WithMessage("scenario: area is required")
	case s.ModuleTitle == "":
		return errors.ErrInternal.WithMessage("scenario: module_title is required")
	case s.URL == "":
		return errors.ErrInternal.WithMessage("scenario: url is required")
	case len(s.EventTypes) == 0:
		return errors.ErrInternal.WithMessage("scenario: at least one event type is required")
	}

	for _, key := range s.EventTypes {
		if _, ok := models.KindForConfigKey(key); !ok {
			return errors.ErrInternal.WithMessage("scenario: unknown event type %q", key)
		}
	}
	return nil
}
