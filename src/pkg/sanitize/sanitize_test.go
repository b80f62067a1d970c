package sanitize

import (
	"reflect"
	"strings"
	"testing"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

func serviceFixture() map[string]any {
	return map[string]any{
		"apiVersion": "v1",
		"kind":       "Service",
		"metadata": map[string]any{
			"name":              "frontend",
			"uid":               "abc-123",
			"resourceVersion":   "42",
			"creationTimestamp": "2024-01-01T00:00:00Z",
			"annotations": map[string]any{
				"kubectl.kubernetes.io/last-applied-configuration": "{}",
			},
			"labels": map[string]any{
				"app":               "frontend",
				"pod-template-hash": "abcdef",
			},
		},
		"spec": map[string]any{
			"type":                "LoadBalancer",
			"clusterIP":           "10.0.0.1",
			"clusterIPs":          []any{"10.0.0.1"},
			"healthCheckNodePort": 30000,
			"ports":               []any{map[string]any{"port": 80}},
		},
		"status": map[string]any{"loadBalancer": map[string]any{}},
	}
}

func TestSanitizeService(t *testing.T) {
	rules := DefaultRules()
	doc := Sanitize(rules, serviceFixture())

	if _, ok := doc["status"]; ok {
		t.Error("status should be removed")
	}
	metadata := doc["metadata"].(map[string]any)
	for _, field := range []string{"uid", "resourceVersion", "creationTimestamp"} {
		if _, ok := metadata[field]; ok {
			t.Errorf("metadata.%s should be removed", field)
		}
	}
	if _, ok := metadata["annotations"]; ok {
		t.Error("emptied annotations map should be removed")
	}
	labels := metadata["labels"].(map[string]any)
	if _, ok := labels["pod-template-hash"]; ok {
		t.Error("pod-template-hash label should be removed")
	}
	if labels["app"] != "frontend" {
		t.Error("operator-owned labels must survive")
	}
	spec := doc["spec"].(map[string]any)
	for _, field := range []string{"clusterIP", "clusterIPs", "healthCheckNodePort"} {
		if _, ok := spec[field]; ok {
			t.Errorf("spec.%s should be removed", field)
		}
	}
	if _, ok := spec["ports"]; !ok {
		t.Error("spec.ports must survive")
	}
}

func TestSanitizeKeepsHealthCheckNodePortForNonLoadBalancer(t *testing.T) {
	doc := map[string]any{
		"apiVersion": "v1",
		"kind":       "Service",
		"metadata":   map[string]any{"name": "frontend"},
		"spec": map[string]any{
			"type":                "NodePort",
			"healthCheckNodePort": 30000,
		},
	}
	Sanitize(DefaultRules(), doc)
	spec := doc["spec"].(map[string]any)
	if _, ok := spec["healthCheckNodePort"]; !ok {
		t.Error("healthCheckNodePort is only stripped for LoadBalancer services")
	}
}

func TestSanitizePersistentVolumeClaim(t *testing.T) {
	doc := map[string]any{
		"apiVersion": "v1",
		"kind":       "PersistentVolumeClaim",
		"metadata":   map[string]any{"name": "data"},
		"spec": map[string]any{
			"volumeName": "pvc-abc-123",
			"volumeMode": "Filesystem",
			"resources": map[string]any{
				"requests": map[string]any{"storage": "10Gi"},
			},
		},
	}
	Sanitize(DefaultRules(), doc)
	spec := doc["spec"].(map[string]any)
	if _, ok := spec["volumeName"]; ok {
		t.Error("spec.volumeName should be removed")
	}
	if _, ok := spec["volumeMode"]; ok {
		t.Error("default Filesystem volumeMode should be removed")
	}
	if _, ok := spec["resources"]; !ok {
		t.Error("storage request must survive")
	}
}

func TestSanitizeDeploymentTemplateMetadata(t *testing.T) {
	doc := map[string]any{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata":   map[string]any{"name": "frontend"},
		"spec": map[string]any{
			"observedGeneration": 7,
			"template": map[string]any{
				"metadata": map[string]any{
					"creationTimestamp": nil,
					"labels":            map[string]any{"app": "frontend"},
				},
			},
		},
	}
	Sanitize(DefaultRules(), doc)
	spec := doc["spec"].(map[string]any)
	if _, ok := spec["observedGeneration"]; ok {
		t.Error("spec.observedGeneration should be removed")
	}
	templateMeta := spec["template"].(map[string]any)["metadata"].(map[string]any)
	if _, ok := templateMeta["creationTimestamp"]; ok {
		t.Error("pod template creationTimestamp should be removed")
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	rules := DefaultRules()
	once := Sanitize(rules, serviceFixture())
	again := Sanitize(rules, Sanitize(rules, serviceFixture()))
	if !reflect.DeepEqual(once, again) {
		t.Errorf("sanitizing twice changed the document:\nonce:  %v\ntwice: %v", once, again)
	}
}

func TestPreserveExemptsFields(t *testing.T) {
	rules := DefaultRules("finalizers")
	doc := map[string]any{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]any{
			"name":       "app",
			"finalizers": []any{"example.com/protect"},
			"uid":        "abc-123",
		},
	}
	Sanitize(rules, doc)
	metadata := doc["metadata"].(map[string]any)
	if _, ok := metadata["finalizers"]; !ok {
		t.Error("preserved field should survive sanitization")
	}
	if _, ok := metadata["uid"]; ok {
		t.Error("non-preserved fields are still removed")
	}
}

func TestVerify(t *testing.T) {
	rules := DefaultRules()
	doc := map[string]any{
		"status":   map[string]any{},
		"metadata": map[string]any{"uid": "abc-123"},
	}
	residual := Verify(rules, doc)
	if len(residual) != 2 {
		t.Fatalf("Verify() = %v, want two residual fields", residual)
	}

	if residual := Verify(rules, Sanitize(rules, serviceFixture())); len(residual) != 0 {
		t.Errorf("sanitized document reports residual fields: %v", residual)
	}
}

func TestSanitizeDocuments(t *testing.T) {
	raw := []byte(`apiVersion: v1
kind: Service
metadata:
  name: frontend
  uid: abc-123
spec:
  clusterIP: 10.0.0.1
  ports:
    - port: 80
status:
  loadBalancer: {}
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: app-config
data:
  key: value
`)

	encoded, docs, err := SanitizeDocuments(DefaultRules(), raw)
	if err != nil {
		t.Fatalf("SanitizeDocuments() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}

	out := string(encoded)
	if strings.Contains(out, "uid:") || strings.Contains(out, "clusterIP:") || strings.Contains(out, "status:") {
		t.Errorf("encoded output still contains cluster-assigned fields:\n%s", out)
	}
	if !strings.Contains(out, "app-config") {
		t.Errorf("second document missing from output:\n%s", out)
	}
	if strings.Count(out, "---") != 1 {
		t.Errorf("expected one document separator, got:\n%s", out)
	}
}

func TestSanitizeDocumentsErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unparsable yaml", "kind: [unclosed"},
		{"only empty documents", "---\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SanitizeDocuments(DefaultRules(), []byte(tt.raw))
			if err == nil {
				t.Fatal("SanitizeDocuments() error = nil, want error")
			}
			if !models.IsKind(err, models.KindYAMLProcessing) {
				t.Errorf("kind = %q, want %q", models.KindOf(err), models.KindYAMLProcessing)
			}
		})
	}
}
