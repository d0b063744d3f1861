package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nethopper2/datasync/internal/core/domain"
)

func TestProviderRegistry_Provider(t *testing.T) {
	r := NewProviderRegistry()

	info, err := r.Provider("google")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGoogle, info.Type)
	assert.Equal(t, "datasync-auth-google", info.WindowName)

	_, err = r.Provider("dropbox")
	assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
}

func TestProviderRegistry_Layer(t *testing.T) {
	r := NewProviderRegistry()

	tests := []struct {
		name    string
		key     domain.ActionKey
		wantErr bool
	}{
		{"google drive", domain.ActionKey{Action: "google", Layer: "drive"}, false},
		{"slack dms", domain.ActionKey{Action: "slack", Layer: "direct_messages"}, false},
		{"atlassian jira", domain.ActionKey{Action: "atlassian", Layer: "jira"}, false},
		{"mineral hr", domain.ActionKey{Action: "mineral", Layer: "hr"}, false},
		{"unknown provider", domain.ActionKey{Action: "box", Layer: "files"}, true},
		{"unknown layer", domain.ActionKey{Action: "google", Layer: "calendar"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, layer, err := r.Layer(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key.Action, string(info.Type))
			assert.Equal(t, tt.key.Layer, layer.ID)
		})
	}
}

func TestProviderRegistry_ProvidersAreCopies(t *testing.T) {
	r := NewProviderRegistry()
	list := r.Providers()
	require.NotEmpty(t, list)

	list[0].Name = "mutated"
	again := r.Providers()
	assert.NotEqual(t, "mutated", again[0].Name)
}
