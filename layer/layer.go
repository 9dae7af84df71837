// Package layer defines the fixed set of corpus partitions.
package layer

import (
	"regexp"
	"strings"
)

// Layer names one partition of the document corpus.
type Layer string

// The known layers, in scan order.
const (
	Config   Layer = "CONFIG"
	Client   Layer = "CLIENT"
	Logic    Layer = "LOGIC"
	Ops      Layer = "OPS"
	Org      Layer = "ORG"
	Pack     Layer = "PACK"
	Role     Layer = "ROLE"
	UseCase  Layer = "USE_CASE"
	Workflow Layer = "WORKFLOW"
	Library  Layer = "LIBRARY"
)

var all = []Layer{Config, Client, Logic, Ops, Org, Pack, Role, UseCase, Workflow, Library}

// layers that may carry a tenant-specific document under tenants/{slug}/
var overridable = map[Layer]bool{
	Client:  true,
	Config:  true,
	Org:     true,
	Pack:    true,
	Role:    true,
	Library: true,
}

// layers whose responses get the tenant's client document attached
var attachesClient = map[Layer]bool{
	UseCase:  true,
	Ops:      true,
	Org:      true,
	Pack:     true,
	Workflow: true,
}

// All returns every known layer in scan order.
func All() []Layer {
	out := make([]Layer, len(all))
	copy(out, all)
	return out
}

// Parse returns the layer named s. s must already be upper-cased.
func Parse(s string) (Layer, bool) {
	l := Layer(s)
	for _, known := range all {
		if known == l {
			return l, true
		}
	}
	return "", false
}

// String returns the layer name.
func (l Layer) String() string { return string(l) }

// Overridable reports whether tenants may override documents of this layer.
func (l Layer) Overridable() bool { return overridable[l] }

// AttachesClient reports whether resolved documents of this layer get the
// tenant's client document attached.
func (l Layer) AttachesClient() bool { return attachesClient[l] }

// fullIDRe matches the LAYER_NN_NAME naming convention.
var fullIDRe = regexp.MustCompile(`^[A-Z_]+_\d+_(.+)$`)

// ShortName returns the trailing NAME of a LAYER_NN_NAME full id.
func ShortName(fullID string) (string, bool) {
	m := fullIDRe.FindStringSubmatch(fullID)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var clientPrefixRe = regexp.MustCompile(`^CLIENT_\d+_`)

// TrimClientPrefix strips a leading CLIENT_NN_ from a client file id.
func TrimClientPrefix(id string) string {
	return clientPrefixRe.ReplaceAllString(id, "")
}

// FromFullID guesses the layer a full id belongs to from its prefix. The
// longest matching layer name wins so USE_CASE_01_X is not read as a
// hypothetical USE layer.
func FromFullID(fullID string) (Layer, bool) {
	var best Layer
	for _, l := range all {
		if strings.HasPrefix(fullID, string(l)+"_") && len(l) > len(best) {
			best = l
		}
	}
	return best, best != ""
}
