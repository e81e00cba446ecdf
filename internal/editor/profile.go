package editor

import (
	"fmt"

	"autobazar/listing-editor/internal/constants"
)

// Profile is the requirement set an editor surface enforces on top of the
// payload's own rules.
type Profile struct {
	Name     string
	Required []string
}

// ProfileFor looks up a named profile. An empty name selects private.
func ProfileFor(name string) (Profile, error) {
	if name == "" {
		name = constants.ProfilePrivate
	}
	req, ok := constants.ProfileRequirements[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown editor profile %q", name)
	}
	return Profile{Name: req.ProfileName, Required: req.RequiredFields}, nil
}

// Requires reports whether the profile demands the payload field.
func (p Profile) Requires(field string) bool {
	for _, f := range p.Required {
		if f == field {
			return true
		}
	}
	return false
}
