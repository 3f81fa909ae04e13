package tracking

import "strings"

var moduleSkills = []struct {
	fragment string
	skill    string
}{
	{"ai-basics", "artificial_intelligence"},
	{"machine-learning", "machine_learning"},
	{"data-analysis", "data_analysis"},
	{"programming", "programming"},
	{"web-development", "web_development"},
}

// MapModuleToSkill returns the skill of the first fragment contained in
// moduleID.
func MapModuleToSkill(moduleID string) (string, bool) {
	for _, m := range moduleSkills {
		if strings.Contains(moduleID, m.fragment) {
			return m.skill, true
		}
	}
	return "", false
}
