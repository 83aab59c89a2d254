package template

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestTemplate_AvailableFor(t *testing.T) {
	tests := []struct {
		name     string
		template Template
		role     string
		expected bool
	}{
		{
			"empty tags available to all",
			Template{IsActive: true, RoleTags: pq.StringArray{}},
			"parent",
			true,
		},
		{
			"matching tag",
			Template{IsActive: true, RoleTags: pq.StringArray{"salon", "realtor"}},
			"salon",
			true,
		},
		{
			"non-matching tag",
			Template{IsActive: true, RoleTags: pq.StringArray{"salon"}},
			"parent",
			false,
		},
		{
			"inactive never available",
			Template{IsActive: false, RoleTags: pq.StringArray{}},
			"parent",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.template.AvailableFor(tt.role))
		})
	}
}
