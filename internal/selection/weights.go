// Package selection blends quantitative and qualitative scores into a ranked
// list of applicants with a seat cutoff.
package selection

import "fmt"

// Weights is a project's quantitative/qualitative split in percent.
type Weights struct {
	Quantitative int `json:"quantitative" validate:"gte=0,lte=100"`
	Qualitative  int `json:"qualitative" validate:"gte=0,lte=100"`
}

// Validate rejects weights outside 0..100 or not summing to 100. Values are
// never clamped.
func (w Weights) Validate() error {
	if w.Quantitative < 0 || w.Quantitative > 100 {
		return fmt.Errorf("quantitative weight %d is outside 0..100", w.Quantitative)
	}
	if w.Qualitative < 0 || w.Qualitative > 100 {
		return fmt.Errorf("qualitative weight %d is outside 0..100", w.Qualitative)
	}
	if sum := w.Quantitative + w.Qualitative; sum != 100 {
		return fmt.Errorf("weights must sum to 100, got %d", sum)
	}
	return nil
}
