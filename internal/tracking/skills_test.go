package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapModuleToSkill(t *testing.T) {
	tests := []struct {
		module string
		skill  string
		ok     bool
	}{
		{"intro-machine-learning-basics", "machine_learning", true},
		{"ai-basics-1", "artificial_intelligence", true},
		{"advanced-data-analysis", "data_analysis", true},
		{"programming-101", "programming", true},
		{"web-development-fundamentals", "web_development", true},
		{"ai-basics-for-machine-learning", "artificial_intelligence", true},
		{"unrelated-topic", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			skill, ok := MapModuleToSkill(tt.module)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.skill, skill)
		})
	}
}
