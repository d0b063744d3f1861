package domain

// ProviderType identifies an external data provider.
type ProviderType string

// Supported providers.
const (
	// ProviderGoogle covers Google Workspace (Drive, Gmail).
	ProviderGoogle ProviderType = "google"
	// ProviderMicrosoft covers Microsoft 365 (OneDrive, Outlook).
	ProviderMicrosoft ProviderType = "microsoft"
	// ProviderSlack covers Slack workspaces.
	ProviderSlack ProviderType = "slack"
	// ProviderAtlassian covers Jira and Confluence.
	ProviderAtlassian ProviderType = "atlassian"
	// ProviderMineral is the Mineral HR system.
	ProviderMineral ProviderType = "mineral"
)

// IsValid returns true if the provider is recognised.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderMicrosoft, ProviderSlack, ProviderAtlassian, ProviderMineral:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p ProviderType) String() string {
	return string(p)
}

// Layer describes one syncable sub-resource of a provider.
type Layer struct {
	// ID is the layer key used in REST calls (e.g., "drive").
	ID string
	// Name is the human-readable display name.
	Name string
	// Icon is the icon identifier for UI display.
	Icon string
}

// ProviderInfo describes a provider and the layers it exposes.
type ProviderInfo struct {
	// Type is the provider key.
	Type ProviderType
	// Name is the human-readable display name.
	Name string
	// Layers lists the syncable sub-resources.
	Layers []Layer
	// WindowName is the fixed target name for this provider's
	// authorisation window, so repeated attempts refocus rather than
	// spawn duplicates.
	WindowName string
}

// LayerByID returns the named layer, or nil if the provider does not
// expose it.
func (p *ProviderInfo) LayerByID(id string) *Layer {
	for i := range p.Layers {
		if p.Layers[i].ID == id {
			return &p.Layers[i]
		}
	}
	return nil
}
