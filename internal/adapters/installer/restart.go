package installer

import (
	"regexp"
	"strconv"
	"strings"

	"go.trai.ch/lockship/internal/core/domain"
)

var (
	// Poetry: "Package operations: 2 installs, 1 update, 0 removals".
	poetryOperations = regexp.MustCompile(`Package operations: (\d+) installs?, (\d+) updates?, (\d+) removals?`)
	// PDM: "3 to add, 1 to update, 0 to remove".
	pdmPlan = regexp.MustCompile(`(\d+) to add, (\d+) to update, (\d+) to remove`)
	// PDM summaries: "added 2", "updated 1", "removed 0".
	pdmSummary = regexp.MustCompile(`(?i)\b(added|updated|removed) (\d+)\b`)
)

var noOpMarkers = []string{
	"nothing to do",
	"nothing to synchronize",
	"no dependencies to install or update",
	"all packages are synced to date",
}

// DecideRestart reads the backend tool's output and reports whether the
// installation changed the environment. Counts win over text markers; output
// that matches neither restarts.
func DecideRestart(output string) (bool, domain.Changes) {
	if changes, ok := parseChanges(output); ok {
		return changes.Total() > 0, changes
	}

	lower := strings.ToLower(output)
	for _, marker := range noOpMarkers {
		if strings.Contains(lower, marker) {
			return false, domain.Changes{}
		}
	}
	return true, domain.Changes{}
}

func parseChanges(output string) (domain.Changes, bool) {
	var (
		changes domain.Changes
		found   bool
	)

	for _, re := range []*regexp.Regexp{poetryOperations, pdmPlan} {
		for _, m := range re.FindAllStringSubmatch(output, -1) {
			found = true
			changes.Added += atoi(m[1])
			changes.Updated += atoi(m[2])
			changes.Removed += atoi(m[3])
		}
	}
	if found {
		return changes, true
	}

	for _, m := range pdmSummary.FindAllStringSubmatch(output, -1) {
		found = true
		switch strings.ToLower(m[1]) {
		case "added":
			changes.Added += atoi(m[2])
		case "updated":
			changes.Updated += atoi(m[2])
		case "removed":
			changes.Removed += atoi(m[2])
		}
	}
	return changes, found
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
