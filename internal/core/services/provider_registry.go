package services

import (
	"fmt"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driving"
)

// providerTable is the static descriptor set for supported providers.
// Adding a provider means adding a row here; the orchestrator core
// never switches on provider keys.
var providerTable = []domain.ProviderInfo{
	{
		Type:       domain.ProviderGoogle,
		Name:       "Google Workspace",
		WindowName: "datasync-auth-google",
		Layers: []domain.Layer{
			{ID: "drive", Name: "Google Drive", Icon: "google-drive"},
			{ID: "gmail", Name: "Gmail", Icon: "gmail"},
		},
	},
	{
		Type:       domain.ProviderMicrosoft,
		Name:       "Microsoft 365",
		WindowName: "datasync-auth-microsoft",
		Layers: []domain.Layer{
			{ID: "onedrive", Name: "OneDrive", Icon: "onedrive"},
			{ID: "outlook", Name: "Outlook Mail", Icon: "outlook"},
		},
	},
	{
		Type:       domain.ProviderSlack,
		Name:       "Slack",
		WindowName: "datasync-auth-slack",
		Layers: []domain.Layer{
			{ID: "channels", Name: "Slack Channels", Icon: "slack"},
			{ID: "direct_messages", Name: "Slack DMs", Icon: "slack"},
		},
	},
	{
		Type:       domain.ProviderAtlassian,
		Name:       "Atlassian",
		WindowName: "datasync-auth-atlassian",
		Layers: []domain.Layer{
			{ID: "jira", Name: "Jira", Icon: "jira"},
			{ID: "confluence", Name: "Confluence", Icon: "confluence"},
		},
	},
	{
		Type:       domain.ProviderMineral,
		Name:       "Mineral HR",
		WindowName: "datasync-auth-mineral",
		Layers: []domain.Layer{
			{ID: "hr", Name: "HR Documents", Icon: "mineral"},
		},
	},
}

// Ensure ProviderRegistry implements the interface.
var _ driving.ProviderRegistry = (*ProviderRegistry)(nil)

// ProviderRegistry resolves provider keys to their descriptors.
type ProviderRegistry struct {
	byKey map[string]*domain.ProviderInfo
}

// NewProviderRegistry creates a registry over the built-in providers.
func NewProviderRegistry() *ProviderRegistry {
	byKey := make(map[string]*domain.ProviderInfo, len(providerTable))
	for i := range providerTable {
		byKey[string(providerTable[i].Type)] = &providerTable[i]
	}
	return &ProviderRegistry{byKey: byKey}
}

// Providers returns all known providers.
func (r *ProviderRegistry) Providers() []domain.ProviderInfo {
	out := make([]domain.ProviderInfo, len(providerTable))
	copy(out, providerTable)
	return out
}

// Provider returns one provider by key.
func (r *ProviderRegistry) Provider(key string) (*domain.ProviderInfo, error) {
	if info, ok := r.byKey[key]; ok {
		return info, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, key)
}

// Layer resolves an action/layer key to its provider and layer.
func (r *ProviderRegistry) Layer(key domain.ActionKey) (*domain.ProviderInfo, *domain.Layer, error) {
	info, err := r.Provider(key.Action)
	if err != nil {
		return nil, nil, err
	}
	layer := info.LayerByID(key.Layer)
	if layer == nil {
		return nil, nil, fmt.Errorf("%w: %s has no layer %q", domain.ErrUnsupportedProvider, key.Action, key.Layer)
	}
	return info, layer, nil
}
