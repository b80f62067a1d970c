package classify

import (
	"testing"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		objectKey     string
		prefix        string
		wantNamespace string
		wantFilename  string
		wantKind      models.ErrorKind
	}{
		{
			name:          "plain namespace and filename",
			objectKey:     "ns1/deployment.yaml",
			wantNamespace: "ns1",
			wantFilename:  "deployment.yaml",
		},
		{
			name:          "prefix is stripped",
			objectKey:     "manifests/team-a/svc.yaml",
			prefix:        "manifests",
			wantNamespace: "team-a",
			wantFilename:  "svc.yaml",
		},
		{
			name:          "deep key uses the last two segments",
			objectKey:     "backup/2024/team-a/deploy.yaml",
			wantNamespace: "team-a",
			wantFilename:  "deploy.yaml",
		},
		{
			name:          "backslash separators are normalized",
			objectKey:     `team-a\deploy.yaml`,
			wantNamespace: "team-a",
			wantFilename:  "deploy.yaml",
		},
		{
			name:      "single component cannot resolve",
			objectKey: "orphan.yaml",
			wantKind:  models.KindPathValidation,
		},
		{
			name:      "prefix-only key cannot resolve",
			objectKey: "manifests/orphan.yaml",
			prefix:    "manifests",
			wantKind:  models.KindPathValidation,
		},
		{
			name:      "uppercase namespace rejected",
			objectKey: "Team-A/deploy.yaml",
			wantKind:  models.KindNamespaceValidation,
		},
		{
			name:      "underscore namespace rejected",
			objectKey: "team_a/deploy.yaml",
			wantKind:  models.KindNamespaceValidation,
		},
		{
			name:      "namespace longer than 63 characters rejected",
			objectKey: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa/deploy.yaml",
			wantKind:  models.KindNamespaceValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			namespace, filename, err := Classify(tt.objectKey, tt.prefix)
			if tt.wantKind != "" {
				if err == nil {
					t.Fatalf("Classify(%q) error = nil, want kind %q", tt.objectKey, tt.wantKind)
				}
				if !models.IsKind(err, tt.wantKind) {
					t.Errorf("Classify(%q) kind = %q, want %q", tt.objectKey, models.KindOf(err), tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify(%q) error = %v", tt.objectKey, err)
			}
			if namespace != tt.wantNamespace || filename != tt.wantFilename {
				t.Errorf("Classify(%q) = (%q, %q), want (%q, %q)",
					tt.objectKey, namespace, filename, tt.wantNamespace, tt.wantFilename)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		doc      map[string]any
		want     string
	}{
		{
			name:     "content kind wins over filename",
			filename: "service-config.yaml",
			doc:      map[string]any{"kind": "ConfigMap"},
			want:     "configmaps",
		},
		{
			name:     "unmapped kind falls back to filename",
			filename: "my-deployment.yaml",
			doc:      map[string]any{"kind": "CustomWidget"},
			want:     "deployments",
		},
		{
			name:     "nil document uses filename",
			filename: "app-svc.yaml",
			want:     "services",
		},
		{
			name:     "role maps to rbac",
			filename: "something.yaml",
			doc:      map[string]any{"kind": "RoleBinding"},
			want:     "rbac",
		},
		{
			name:     "hpa by content",
			filename: "scaler.yaml",
			doc:      map[string]any{"kind": "HorizontalPodAutoscaler"},
			want:     "hpa",
		},
		{
			name:     "nothing matches",
			filename: "mystery.yaml",
			want:     CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.filename, tt.doc); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestCategorizeByFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"frontend-deploy.yaml", "deployments"},
		{"frontend-deployment.yaml", "deployments"},
		{"frontend-svc.yaml", "services"},
		{"app-config.yaml", "configmaps"},
		{"db-secret.yaml", "secrets"},
		{"data-pvc.yaml", "persistentvolumeclaims"},
		{"app-route.yaml", "routes"},
		{"app-ingress.yaml", "ingress"},
		{"nightly-cron.yaml", "cronjobs"},
		{"scaler-hpa.yaml", "hpa"},
		{"app-imagestream.yaml", "imagestreams"},
		{"deny-networkpolicy.yaml", "networkpolicies"},
		{"mystery.yaml", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := CategorizeByFilename(tt.filename); got != tt.want {
				t.Errorf("CategorizeByFilename(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestIsManifestFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"deploy.yaml", true},
		{"deploy.yml", true},
		{"DEPLOY.YAML", true},
		{"readme.md", false},
		{"archive.tar.gz", false},
		{"yaml", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsManifestFile(tt.filename); got != tt.want {
				t.Errorf("IsManifestFile(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}
