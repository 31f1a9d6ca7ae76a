package storage

import "slices"

// Capability represents a property a storage adapter can provide.
type Capability string

const (
	// CapabilityTrustedHash means listed files carry a content hash that
	// can be compared against locally computed MD5 digests.
	CapabilityTrustedHash Capability = "trusted_hash"
	// CapabilityRedirect means redirect markers are stored as redirect rules.
	CapabilityRedirect Capability = "redirect"
)

// Capabilities describes what an adapter supports
type Capabilities struct {
	Capabilities []Capability
}

func NewCapabilities(capabilities ...Capability) *Capabilities {
	return &Capabilities{
		Capabilities: capabilities,
	}
}

// Contains checks if a capability is supported
func (c *Capabilities) Contains(capability Capability) bool {
	if c == nil {
		return false
	}

	return slices.Contains(c.Capabilities, capability)
}
