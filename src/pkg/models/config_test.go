package models

import (
	"reflect"
	"testing"
)

func TestClusterMappingsFor(t *testing.T) {
	mappings := &ClusterMappings{
		Default: ClusterMapping{
			"dev":  "https://dev.example.com",
			"prod": "https://prod.example.com",
		},
		Overrides: map[string]ClusterMapping{
			"team-b": {"prod": "https://prod-b.example.com"},
		},
	}

	tests := []struct {
		name      string
		namespace string
		want      ClusterMapping
	}{
		{
			name:      "no override falls back to defaults",
			namespace: "team-a",
			want: ClusterMapping{
				"dev":  "https://dev.example.com",
				"prod": "https://prod.example.com",
			},
		},
		{
			name:      "override replaces only the named environment",
			namespace: "team-b",
			want: ClusterMapping{
				"dev":  "https://dev.example.com",
				"prod": "https://prod-b.example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mappings.For(tt.namespace); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("For(%q) = %v, want %v", tt.namespace, got, tt.want)
			}
		})
	}
}

func TestClusterMappingsValidate(t *testing.T) {
	mappings := &ClusterMappings{Default: ClusterMapping{"dev": "https://dev.example.com"}}

	if err := mappings.Validate([]string{"dev"}); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	err := mappings.Validate([]string{"dev", "prod"})
	if err == nil {
		t.Fatal("Validate() should fail for an unmapped environment")
	}
	if !IsKind(err, KindConfiguration) {
		t.Errorf("Validate() kind = %q, want %q", KindOf(err), KindConfiguration)
	}
}

func TestNamespaceConfigResources(t *testing.T) {
	ns := NewNamespaceConfig("team-a", ClusterMapping{"dev": "https://dev.example.com"})

	ns.AddResource("deployments", "deploy.yaml")
	ns.AddResource("deployments", "deploy.yaml") // duplicate ignored
	ns.AddResource("services", "svc.yaml")
	ns.AddResource("other", "mystery.yaml")

	if ns.FileCount() != 3 {
		t.Errorf("FileCount() = %d, want 3", ns.FileCount())
	}
	if got, want := ns.Categories(), []string{"deployments", "other", "services"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}

	// Content-based recategorization empties and removes "other".
	ns.MoveResource("other", "configmaps", "mystery.yaml")
	if _, ok := ns.Resources["other"]; ok {
		t.Error("emptied category should be deleted")
	}
	if got := ns.Resources["configmaps"]; len(got) != 1 || got[0] != "mystery.yaml" {
		t.Errorf("configmaps = %v, want [mystery.yaml]", got)
	}

	ns.RemoveResource("services", "svc.yaml")
	if _, ok := ns.Resources["services"]; ok {
		t.Error("RemoveResource should delete an emptied category")
	}
	if ns.FileCount() != 2 {
		t.Errorf("FileCount() after removal = %d, want 2", ns.FileCount())
	}
}
