package manifest

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version returns the declared manifest version, or DefaultVersion when the
// manifest does not declare one.
func Version(doc map[string]any) string {
	switch v := doc[KeyVersion].(type) {
	case string:
		if v != "" {
			return v
		}
	case int, int64, float64:
		return fmt.Sprint(v)
	}

	return DefaultVersion
}

// ParseVersion parses a "major.minor.patch" version. Missing minor or patch
// parts default to zero.
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}

	return v, nil
}

// IsNewerVersion reports whether newVersion is strictly greater than
// oldVersion. Both are compared numerically per component, so 6.10.0 is
// newer than 6.9.0.
func IsNewerVersion(newVersion, oldVersion string) (bool, error) {
	newer, err := ParseVersion(newVersion)
	if err != nil {
		return false, err
	}

	older, err := ParseVersion(oldVersion)
	if err != nil {
		return false, err
	}

	return newer.GreaterThan(older), nil
}
