package preprocess

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/nesai/digitmlp/internal/dataset"
)

// ConfigurationError reports a dataset that does not fit the declared
// architecture.
type ConfigurationError struct {
	Split  string
	Want   int   // declared class count
	Labels []int // distinct labels observed
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s split: %s (declared %d classes, observed labels %v)",
		e.Split, e.Reason, e.Want, e.Labels)
}

// IsConfiguration reports whether err was caused by a *ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// CheckLabels fails with *ConfigurationError unless split has exactly
// numClasses distinct labels, all within [0, numClasses).
func CheckLabels(split dataset.Split, numClasses int) error {
	labels := split.Labels()
	if len(labels) != numClasses {
		return &ConfigurationError{
			Split:  split.Name,
			Want:   numClasses,
			Labels: labels,
			Reason: "invalid number of dataset labels",
		}
	}
	return checkRange(split.Name, labels, numClasses)
}

// CheckRange fails with *ConfigurationError if any label in split lies
// outside [0, numClasses). Unlike CheckLabels it accepts splits that
// cover only some of the classes.
func CheckRange(split dataset.Split, numClasses int) error {
	return checkRange(split.Name, split.Labels(), numClasses)
}

func checkRange(name string, labels []int, numClasses int) error {
	for _, l := range labels {
		if l < 0 || l >= numClasses {
			return &ConfigurationError{
				Split:  name,
				Want:   numClasses,
				Labels: labels,
				Reason: fmt.Sprintf("label %d outside [0,%d)", l, numClasses),
			}
		}
	}
	return nil
}
