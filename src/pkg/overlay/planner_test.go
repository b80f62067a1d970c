package overlay

import (
	"testing"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

func TestNewPlannerRequiresEnvironments(t *testing.T) {
	_, err := NewPlanner(nil)
	if err == nil {
		t.Fatal("NewPlanner(nil) error = nil, want error")
	}
	if !models.IsKind(err, models.KindConfiguration) {
		t.Errorf("kind = %q, want %q", models.KindOf(err), models.KindConfiguration)
	}
}

func TestPlannerEnvironmentSplit(t *testing.T) {
	p, err := NewPlanner([]string{"dev", "test", "preprod", "prod"})
	if err != nil {
		t.Fatalf("NewPlanner() error = %v", err)
	}
	if p.Base() != "dev" {
		t.Errorf("Base() = %q, want %q", p.Base(), "dev")
	}
	overlays := p.Overlays()
	if len(overlays) != 3 || overlays[0] != "test" || overlays[2] != "prod" {
		t.Errorf("Overlays() = %v, want [test preprod prod]", overlays)
	}
}

func TestPlannerAutomated(t *testing.T) {
	p, _ := NewPlanner([]string{"dev", "test", "preprod", "prod"})

	tests := []struct {
		environment string
		want        bool
	}{
		{"dev", true},
		{"test", true},
		{"preprod", false},
		{"prod", false},
		{"unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			if got := p.Automated(tt.environment); got != tt.want {
				t.Errorf("Automated(%q) = %v, want %v", tt.environment, got, tt.want)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	p, _ := NewPlanner([]string{"dev", "test", "preprod", "prod"})

	overlays := p.Plan("team-a", map[string]string{"data": "10Gi"})
	if len(overlays) != 3 {
		t.Fatalf("got %d overlays, want 3", len(overlays))
	}

	tests := []struct {
		environment     string
		targetNamespace string
		namePrefix      string
		replicas        int
		storage         string
		automated       bool
	}{
		{"test", "team-a-test", "test-", 1, "5Gi", true},
		{"preprod", "team-a-preprod", "preprod-", 2, "20Gi", false},
		{"prod", "team-a-prod", "prod-", 3, "50Gi", false},
	}

	for i, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := overlays[i]
			if cfg.Environment != tt.environment {
				t.Errorf("Environment = %q, want %q", cfg.Environment, tt.environment)
			}
			if cfg.TargetNamespace != tt.targetNamespace {
				t.Errorf("TargetNamespace = %q, want %q", cfg.TargetNamespace, tt.targetNamespace)
			}
			if cfg.NamePrefix != tt.namePrefix {
				t.Errorf("NamePrefix = %q, want %q", cfg.NamePrefix, tt.namePrefix)
			}
			if cfg.ReplicaCount != tt.replicas {
				t.Errorf("ReplicaCount = %d, want %d", cfg.ReplicaCount, tt.replicas)
			}
			if got := cfg.StorageSizes["data"]; got != tt.storage {
				t.Errorf("StorageSizes[data] = %q, want %q", got, tt.storage)
			}
			if cfg.Automated != tt.automated {
				t.Errorf("Automated = %v, want %v", cfg.Automated, tt.automated)
			}
		})
	}
}

func TestPlanBeyondConfiguredTiers(t *testing.T) {
	p, _ := NewPlanner([]string{"dev", "test", "preprod", "prod", "dr"})
	overlays := p.Plan("team-a", map[string]string{"data": "10Gi"})

	last := overlays[len(overlays)-1]
	if last.Environment != "dr" {
		t.Fatalf("last overlay = %q, want dr", last.Environment)
	}
	// Environments past the last tier reuse the final tier's scaling.
	if last.ReplicaCount != 3 {
		t.Errorf("ReplicaCount = %d, want 3", last.ReplicaCount)
	}
	if got := last.StorageSizes["data"]; got != "50Gi" {
		t.Errorf("StorageSizes[data] = %q, want 50Gi", got)
	}
}

func TestScaleStorage(t *testing.T) {
	p, _ := NewPlanner([]string{"dev", "test", "preprod", "prod"})

	tests := []struct {
		name     string
		baseSize string
		tier     int
		want     string
	}{
		{"halved and floored to whole units", "10Gi", 0, "5Gi"},
		{"doubled", "10Gi", 1, "20Gi"},
		{"five times", "10Gi", 2, "50Gi"},
		{"small size floors at one unit", "1Gi", 0, "1Gi"},
		{"fractional result floored", "5Gi", 0, "2Gi"},
		{"megabytes keep their unit", "500Mi", 1, "1000Mi"},
		{"unparsable falls back to tier default", "lots", 0, "1Gi"},
		{"unparsable falls back at higher tier", "lots", 2, "50Gi"},
		{"bad unit falls back", "10Xx", 1, "10Gi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.scaleStorage("data", tt.baseSize, tt.tier); got != tt.want {
				t.Errorf("scaleStorage(%q, tier %d) = %q, want %q", tt.baseSize, tt.tier, got, tt.want)
			}
		})
	}
}

func TestExtractPVCSizes(t *testing.T) {
	docs := []map[string]any{
		{
			"kind":     "PersistentVolumeClaim",
			"metadata": map[string]any{"name": "data"},
			"spec": map[string]any{
				"resources": map[string]any{
					"requests": map[string]any{"storage": "10Gi"},
				},
			},
		},
		{
			"kind":     "PersistentVolumeClaim",
			"metadata": map[string]any{"name": "cache"},
			"spec":     map[string]any{},
		},
		{
			"kind":     "Deployment",
			"metadata": map[string]any{"name": "app"},
		},
	}

	sizes := ExtractPVCSizes(docs)
	if len(sizes) != 1 {
		t.Fatalf("got %d sizes, want 1: %v", len(sizes), sizes)
	}
	if sizes["data"] != "10Gi" {
		t.Errorf("sizes[data] = %q, want 10Gi", sizes["data"])
	}
}
