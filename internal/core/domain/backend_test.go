package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/internal/core/domain"
)

func TestClassifyBackend(t *testing.T) {
	tests := []struct {
		name         string
		buildBackend string
		want         domain.Backend
		wantErr      bool
	}{
		{name: "poetry core", buildBackend: "poetry.core.masonry.api", want: domain.BackendPoetry},
		{name: "legacy poetry", buildBackend: "poetry.masonry.api", want: domain.BackendPoetry},
		{name: "pdm backend", buildBackend: "pdm.backend", want: domain.BackendPDM},
		{name: "pdm pep517", buildBackend: "pdm.pep517.api", want: domain.BackendPDM},
		{name: "setuptools", buildBackend: "setuptools.build_meta", wantErr: true},
		{name: "hatchling", buildBackend: "hatchling.build", wantErr: true},
		{name: "empty", buildBackend: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ClassifyBackend(tt.buildBackend)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrUnsupportedBackend))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackend_Conventions(t *testing.T) {
	assert.Equal(t, "poetry.lock", domain.BackendPoetry.LockfileName())
	assert.Equal(t, "pdm.lock", domain.BackendPDM.LockfileName())
	assert.Equal(t, "Poetry", domain.BackendPoetry.ToolName())
	assert.Equal(t, "PDM", domain.BackendPDM.ToolName())
	assert.Equal(t, "pdm", domain.BackendPDM.Executable())
	assert.Equal(t, "poetry add blaze bokeh", domain.BackendPoetry.AddCommand("blaze", "bokeh"))
	assert.Contains(t, domain.BackendPoetry.PromoteHint("flake8"), "`poetry add flake8`")
}

func TestBackend_TextRoundTrip(t *testing.T) {
	text, err := domain.BackendPDM.MarshalText()
	require.NoError(t, err)

	var b domain.Backend
	require.NoError(t, b.UnmarshalText(text))
	assert.Equal(t, domain.BackendPDM, b)

	require.Error(t, b.UnmarshalText([]byte("conda")))
}
