package installer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lockship/internal/adapters/installer"
	"go.trai.ch/lockship/internal/core/domain"
)

func TestDecideRestart(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		restart bool
		changes domain.Changes
	}{
		{
			name: "poetry installs",
			output: "Installing dependencies from lock file\n\n" +
				"Package operations: 2 installs, 1 update, 0 removals\n\n" +
				"  - Installing toolz (0.12.0)\n",
			restart: true,
			changes: domain.Changes{Added: 2, Updated: 1},
		},
		{
			name:    "poetry zero operations",
			output:  "Package operations: 0 installs, 0 updates, 0 removals\n",
			restart: false,
		},
		{
			name:    "poetry nothing to install",
			output:  "Installing dependencies from lock file\n\nNo dependencies to install or update\n",
			restart: false,
		},
		{
			name:    "pdm plan",
			output:  "Synchronizing working set with resolved packages: 0 to add, 1 to update, 2 to remove\n",
			restart: true,
			changes: domain.Changes{Updated: 1, Removed: 2},
		},
		{
			name:    "pdm zero plan",
			output:  "Synchronizing working set with resolved packages: 0 to add, 0 to update, 0 to remove\n",
			restart: false,
		},
		{
			name:    "pdm summary",
			output:  "All complete! added 3, removed 1\n",
			restart: true,
			changes: domain.Changes{Added: 3, Removed: 1},
		},
		{
			name:    "pdm nothing to do",
			output:  "All packages are synced to date, nothing to do.\n",
			restart: false,
		},
		{
			name:    "counts win over markers",
			output:  "nothing to do\nPackage operations: 1 install, 0 updates, 0 removals\n",
			restart: true,
			changes: domain.Changes{Added: 1},
		},
		{
			name:    "ambiguous output restarts",
			output:  "Updating numpy\n",
			restart: true,
		},
		{
			name:    "empty output restarts",
			output:  "",
			restart: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restart, changes := installer.DecideRestart(tt.output)
			assert.Equal(t, tt.restart, restart)
			assert.Equal(t, tt.changes, changes)
		})
	}
}
