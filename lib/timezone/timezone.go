package timezone

import (
	"fmt"
	"time"
)

// Load returns the named location, an empty name is time.Local.
//
// The tracker pins a location so snapshot names and log timestamps line up
// with the retailers it watches even when the host runs on UTC.
func Load(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}
