package models

import "sort"

// BucketObject is a single keyed blob discovered during bucket listing.
type BucketObject struct {
	Key  string
	Size int64
}

// ClusterMapping maps an environment name to its target cluster API server.
// Every configured environment must have an entry.
type ClusterMapping map[string]string

// ClusterMappings holds the default environment->cluster mapping plus
// optional per-namespace overrides.
type ClusterMappings struct {
	Default   ClusterMapping
	Overrides map[string]ClusterMapping
}

// For resolves the mapping for a namespace, falling back to the default
// mapping for any environment the override does not cover.
func (c *ClusterMappings) For(namespace string) ClusterMapping {
	resolved := make(ClusterMapping, len(c.Default))
	for env, server := range c.Default {
		resolved[env] = server
	}
	if override, ok := c.Overrides[namespace]; ok {
		for env, server := range override {
			resolved[env] = server
		}
	}
	return resolved
}

// Validate checks that every environment has a cluster endpoint.
func (c *ClusterMappings) Validate(environments []string) error {
	for _, env := range environments {
		if c.Default[env] == "" {
			return NewError(KindConfiguration, "no cluster endpoint configured for environment %q", env)
		}
	}
	return nil
}

// NamespaceConfig describes one namespace discovered during scanning:
// its resources grouped by category, and the clusters it deploys to.
type NamespaceConfig struct {
	Name           string
	Resources      map[string][]string // category -> file names
	ClusterMapping ClusterMapping
}

func NewNamespaceConfig(name string, mapping ClusterMapping) *NamespaceConfig {
	return &NamespaceConfig{
		Name:           name,
		Resources:      make(map[string][]string),
		ClusterMapping: mapping,
	}
}

// AddResource records a file under a category, ignoring duplicates.
func (n *NamespaceConfig) AddResource(category, filename string) {
	for _, existing := range n.Resources[category] {
		if existing == filename {
			return
		}
	}
	n.Resources[category] = append(n.Resources[category], filename)
}

// RemoveResource drops a file from a category, deleting the category
// once it is empty. Used when a discovered file later fails processing.
func (n *NamespaceConfig) RemoveResource(category, filename string) {
	files := n.Resources[category]
	for i, existing := range files {
		if existing == filename {
			n.Resources[category] = append(files[:i], files[i+1:]...)
			break
		}
	}
	if len(n.Resources[category]) == 0 {
		delete(n.Resources, category)
	}
}

// MoveResource relocates a file from one category to another. Used when
// content-based categorization corrects a filename-based guess.
func (n *NamespaceConfig) MoveResource(from, to, filename string) {
	if from == to {
		return
	}
	n.RemoveResource(from, filename)
	n.AddResource(to, filename)
}

// Categories returns the resource categories in sorted order so that
// generated kustomization resource lists are deterministic.
func (n *NamespaceConfig) Categories() []string {
	categories := make([]string, 0, len(n.Resources))
	for category := range n.Resources {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// FileCount returns the total number of files across all categories.
func (n *NamespaceConfig) FileCount() int {
	total := 0
	for _, files := range n.Resources {
		total += len(files)
	}
	return total
}

// OverlayConfig is the derived per-environment overlay model. Computed for
// every non-base environment from the base environment's manifests.
type OverlayConfig struct {
	Environment     string
	TargetNamespace string
	NamePrefix      string
	ReplicaCount    int
	StorageSizes    map[string]string // pvc name -> size string
	Automated       bool              // sync policy: prune + self-heal
}
