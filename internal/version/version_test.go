package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVersionGreaterOrEqualThan(t *testing.T) {
	tests := []struct {
		version string
		target  string
		want    bool
	}{
		{"0.1.0", "0.1.0", true},
		{"0.1.1", "0.1.0", true},
		{"0.2.0", "0.10.0", false},
		{"1.0.0", "0.9.9", true},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, IsVersionGreaterOrEqualThan(test.version, test.target), "%s >= %s", test.version, test.target)
	}
}

func TestIsVersionGreaterThan(t *testing.T) {
	assert.False(t, IsVersionGreaterThan("0.1.0", "0.1.0"))
	assert.True(t, IsVersionGreaterThan("0.1.2", "0.1.1"))
	assert.False(t, IsVersionGreaterThan("0.0.9", "0.1.0"))
}

func TestGetMinorVersion(t *testing.T) {
	assert.Equal(t, "0.1", GetMinorVersion("0.1.3"))
	assert.Equal(t, "1.12", GetMinorVersion("1.12.0"))
	assert.Equal(t, "", GetMinorVersion("1"))
}

func TestGetCurrentVersion(t *testing.T) {
	assert.Equal(t, DevVersion, GetCurrentVersion("dev"))
	assert.Equal(t, Version, GetCurrentVersion("prod"))
}
