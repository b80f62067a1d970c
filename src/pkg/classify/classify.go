package classify

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

var logger = log.WithField("package", "classify")

// CategoryOther is assigned when neither manifest content nor filename
// keywords resolve a category. Files landing here deserve investigation.
const CategoryOther = "other"

// kindCategories maps a lower-cased Kubernetes kind to its category
// directory. Content-based classification consults this table first;
// adding a new kind is a table entry, not a new branch.
var kindCategories = map[string]string{
	"deployment":              "deployments",
	"statefulset":             "statefulsets",
	"daemonset":               "daemonsets",
	"replicaset":              "replicasets",
	"pod":                     "pods",
	"service":                 "services",
	"configmap":               "configmaps",
	"secret":                  "secrets",
	"persistentvolumeclaim":   "persistentvolumeclaims",
	"persistentvolume":        "persistentvolumes",
	"route":                   "routes",
	"ingress":                 "ingress",
	"networkpolicy":           "networkpolicies",
	"cronjob":                 "cronjobs",
	"job":                     "jobs",
	"horizontalpodautoscaler": "hpa",
	"poddisruptionbudget":     "poddisruptionbudgets",
	"serviceaccount":          "serviceaccounts",
	"role":                    "rbac",
	"rolebinding":             "rbac",
	"imagestream":             "imagestreams",
	"buildconfig":             "buildconfigs",
	"deploymentconfig":        "deploymentconfigs",
}

// filenameKeywords is the fallback used before a manifest has been
// downloaded. Filenames are operator-chosen and unreliable, so the
// content-derived category always wins once available. Order matters:
// the first keyword group that matches decides.
var filenameKeywords = []struct {
	words    []string
	category string
}{
	{[]string{"deploy", "deployment"}, "deployments"},
	{[]string{"service", "svc"}, "services"},
	{[]string{"config", "cm"}, "configmaps"},
	{[]string{"secret"}, "secrets"},
	{[]string{"pvc", "persistent"}, "persistentvolumeclaims"},
	{[]string{"route"}, "routes"},
	{[]string{"ingress"}, "ingress"},
	{[]string{"cron", "job"}, "cronjobs"},
	{[]string{"hpa", "autoscal"}, "hpa"},
	{[]string{"image", "stream"}, "imagestreams"},
	{[]string{"network", "policy"}, "networkpolicies"},
}

// Classify resolves an object key to its (namespace, filename) identity.
// The prefix is stripped, separators are normalized to forward slashes,
// and of the remaining segments the second-to-last is the namespace and
// the last is the filename.
func Classify(objectKey, prefix string) (namespace, filename string, err error) {
	trimmed := strings.ReplaceAll(objectKey, "\\", "/")
	prefix = strings.ReplaceAll(prefix, "\\", "/")
	if prefix != "" {
		trimmed = strings.TrimPrefix(trimmed, prefix)
	}
	trimmed = strings.Trim(trimmed, "/")

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", "", models.NewError(models.KindPathValidation,
			"object key %q does not resolve to namespace/filename", objectKey)
	}

	namespace = parts[len(parts)-2]
	filename = parts[len(parts)-1]
	if namespace == "" || filename == "" {
		return "", "", models.NewError(models.KindPathValidation,
			"object key %q has empty namespace or filename segment", objectKey)
	}

	if errs := validation.IsDNS1123Label(namespace); len(errs) > 0 {
		return "", "", models.NewError(models.KindNamespaceValidation,
			"namespace %q is not a valid DNS-1123 label: %s", namespace, strings.Join(errs, "; "))
	}

	return namespace, filename, nil
}

// Categorize determines the resource category for a manifest file. When
// the parsed manifest is available its kind is authoritative; otherwise
// filename keywords are matched. Unresolvable files go to CategoryOther.
func Categorize(filename string, doc map[string]any) string {
	if doc != nil {
		if kind, ok := doc["kind"].(string); ok {
			if category, ok := kindCategories[strings.ToLower(kind)]; ok {
				return category
			}
			logger.WithFields(log.Fields{"filename": filename, "kind": kind}).
				Warn("Unmapped resource kind, falling back to filename matching")
		}
	}
	return CategorizeByFilename(filename)
}

// CategorizeByFilename matches keyword groups against the lower-cased
// filename. This is the only tier available during bucket listing, before
// any content has been downloaded.
func CategorizeByFilename(filename string) string {
	lower := strings.ToLower(filename)
	for _, group := range filenameKeywords {
		for _, word := range group.words {
			if strings.Contains(lower, word) {
				return group.category
			}
		}
	}
	return CategoryOther
}

// IsManifestFile reports whether the filename carries a manifest
// extension. Non-manifest objects are skipped during scanning.
func IsManifestFile(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
