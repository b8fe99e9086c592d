// Package optimization holds the results solvers attach to a forecast.
package optimization

import (
	"fmt"
	"strings"
)

// Summary is what one solver found for one scenario. Lower and Upper are
// the interval that was searched, in the units of Field.
type Summary struct {
	Scenario        string   `json:"scenario"`
	Kind            string   `json:"kind"`
	Field           string   `json:"field"`
	Lower           float64  `json:"lower"`
	Upper           float64  `json:"upper"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Target          float64  `json:"target"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}

// String renders the summary as a single report line.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s -> %s (iterations %d, converged %t)",
		s.Kind, s.OriginalDisplay, s.ValueDisplay, s.Iterations, s.Converged)
	if len(s.Notes) > 0 {
		fmt.Fprintf(&b, " | %s", strings.Join(s.Notes, "; "))
	}
	return b.String()
}
