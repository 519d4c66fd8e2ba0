// Package version holds the bot release and the web client version type.
package version

import "fmt"

// Current is the release version of the bot.
const Current = "1.0.0"

// Name is the product name shown in banners and the user agent.
const Name = "whatsbot"

// Version represents a "major.minor.patch" version. The WhatsApp Web
// client version uses the same shape.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// FromParts builds a Version from its three components.
func FromParts(parts [3]uint32) Version {
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}
}

// String returns the version as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsZero reports whether all components are zero.
func (v Version) IsZero() bool {
	return v == Version{}
}

// UserAgent returns the bot identifier, e.g. "whatsbot/1.0.0".
func UserAgent() string {
	return Name + "/" + Current
}
