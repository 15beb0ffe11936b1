// Package revision provides the document revision aggregate and its
// major.minor versioning policy.
package revision

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a document revision number in major.minor form.
// Immutable; all operations return new instances.
type Version struct {
	major uint64
	minor uint64
}

// Initial is the first version every document starts at.
var Initial = Version{major: 1, minor: 0}

// NewVersion creates a Version value object.
func NewVersion(major, minor uint64) Version {
	return Version{major: major, minor: minor}
}

// ParseVersion parses a "major.minor" string. A leading "v" is tolerated;
// patch, prerelease, and metadata components are not.
func ParseVersion(s string) (Version, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "v")
	cleaned = strings.TrimPrefix(cleaned, "V")

	sv, err := semver.NewVersion(cleaned)
	if err != nil {
		return Version{}, fmt.Errorf("invalid revision version %q: %w", s, err)
	}
	if sv.Patch() != 0 || sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, fmt.Errorf("invalid revision version %q: revisions use major.minor form", s)
	}
	return Version{major: sv.Major(), minor: sv.Minor()}, nil
}

// MustParseVersion parses a version string and panics if invalid.
// Use only for known-good version strings.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major component.
func (v Version) Major() uint64 {
	return v.major
}

// Minor returns the minor component.
func (v Version) Minor() uint64 {
	return v.minor
}

// NextMajor returns the next major version; minor resets to zero.
func (v Version) NextMajor() Version {
	return Version{major: v.major + 1, minor: 0}
}

// NextMinor returns the next minor version.
func (v Version) NextMinor() Version {
	return Version{major: v.major, minor: v.minor + 1}
}

// Compare returns -1 if v < other, 0 if equal, 1 if v > other.
func (v Version) Compare(other Version) int {
	if v.major != other.major {
		if v.major < other.major {
			return -1
		}
		return 1
	}
	if v.minor != other.minor {
		if v.minor < other.minor {
			return -1
		}
		return 1
	}
	return 0
}

// LessThan returns true if v < other.
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// GreaterThan returns true if v > other.
func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// Equal returns true if the versions are equal.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// String returns the "major.minor" representation.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.major, v.minor)
}

// MarshalJSON encodes the version as its string form.
func (v Version) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", v.String())), nil
}

// UnmarshalJSON decodes the version from its string form.
func (v *Version) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
