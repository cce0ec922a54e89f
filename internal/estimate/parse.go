// ABOUTME: Parsing of model replies into nutrition estimates.
// ABOUTME: Strips markdown code fences before decoding the JSON object.
package estimate

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/harperreed/caltra/internal/models"
)

// ErrInvalidFormat is returned when a reply is not the expected JSON object.
var ErrInvalidFormat = errors.New("invalid estimate format")

var fenceRe = regexp.MustCompile("```json\\n?|\\n?```")

// StripFences removes ```json and ``` markers and surrounding whitespace.
func StripFences(content string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(content, ""))
}

type rawEstimate struct {
	Name            string   `json:"name"`
	CaloriesPer100g *float64 `json:"caloriesPer100g"`
	ProteinPer100g  *float64 `json:"proteinPer100g"`
}

// ParseEstimate decodes a model reply. Both nutrient values must be present
// and non-negative.
func ParseEstimate(content string) (*models.Estimate, error) {
	var raw rawEstimate
	if err := json.Unmarshal([]byte(StripFences(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if raw.CaloriesPer100g == nil || raw.ProteinPer100g == nil {
		return nil, fmt.Errorf("%w: missing caloriesPer100g or proteinPer100g", ErrInvalidFormat)
	}
	if *raw.CaloriesPer100g < 0 || *raw.ProteinPer100g < 0 {
		return nil, fmt.Errorf("%w: negative value", ErrInvalidFormat)
	}
	return &models.Estimate{
		Name:            strings.TrimSpace(raw.Name),
		CaloriesPer100g: *raw.CaloriesPer100g,
		ProteinPer100g:  *raw.ProteinPer100g,
	}, nil
}
