package validate

import (
	"fmt"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

// Limits holds every size and structure ceiling the gate enforces.
// Constructed once at startup and passed by reference so the limits are
// declarative and testable in isolation.
type Limits struct {
	MaxFileSize          int64 // bytes
	MaxDepth             int
	MaxItems             int
	MaxStringLength      int
	MaxNamespaces        int
	MaxFilesPerNamespace int
}

// DefaultLimits mirrors the limits the tool has always shipped with:
// 50MiB files, depth 20, 1000 items per collection, 10000-char strings,
// 100 namespaces, 1000 files per namespace.
func DefaultLimits() *Limits {
	return &Limits{
		MaxFileSize:          50 * 1024 * 1024,
		MaxDepth:             20,
		MaxItems:             1000,
		MaxStringLength:      10000,
		MaxNamespaces:        100,
		MaxFilesPerNamespace: 1000,
	}
}

// dangerousSubstrings are code-execution and template-injection markers
// that have no business inside a Kubernetes manifest. Matching is
// case-insensitive. This is defense in depth, not a sandbox.
var dangerousSubstrings = []string{
	"exec(",
	"eval(",
	"system(",
	"subprocess",
	"__import__",
	"import os",
	"base64.decode",
}

// dangerousPipe catches shell-invocation idioms like "curl ... | sh".
var dangerousPipe = regexp.MustCompile(`(?i)(curl|wget)\s+[^\n|]*\|\s*sh`)

// Gate runs every object and manifest through independent safety checks
// before the pipeline trusts it.
type Gate struct {
	limits *Limits
}

func NewGate(limits *Limits) *Gate {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Gate{limits: limits}
}

func (g *Gate) Limits() *Limits {
	return g.limits
}

// CheckObjectSize rejects objects larger than the configured maximum,
// regardless of anything else about them.
func (g *Gate) CheckObjectSize(key string, size int64) error {
	if size > g.limits.MaxFileSize {
		return models.NewError(models.KindFileSize,
			"object %q is %d bytes, exceeds limit of %d", key, size, g.limits.MaxFileSize)
	}
	return nil
}

// CheckExtension requires a .yaml or .yml filename.
func (g *Gate) CheckExtension(filename string) error {
	lower := strings.ToLower(filename)
	if !strings.HasSuffix(lower, ".yaml") && !strings.HasSuffix(lower, ".yml") {
		return models.NewError(models.KindValidation,
			"file %q does not have a manifest extension", filename)
	}
	return nil
}

// CheckContent scans raw text for dangerous patterns.
func (g *Gate) CheckContent(filename string, content []byte) error {
	lower := strings.ToLower(string(content))
	for _, pattern := range dangerousSubstrings {
		if strings.Contains(lower, pattern) {
			return models.NewError(models.KindSecurity,
				"file %q contains dangerous pattern %q", filename, pattern)
		}
	}
	if dangerousPipe.MatchString(lower) {
		return models.NewError(models.KindSecurity,
			"file %q contains a shell-pipe invocation", filename)
	}
	return nil
}

// CheckStructure recursively enforces depth, collection-size and
// string-length limits on a parsed document.
func (g *Gate) CheckStructure(filename string, doc any) error {
	return g.checkNode(filename, doc, 0)
}

func (g *Gate) checkNode(filename string, node any, depth int) error {
	if depth > g.limits.MaxDepth {
		return models.NewError(models.KindValidation,
			"file %q exceeds maximum nesting depth of %d", filename, g.limits.MaxDepth)
	}
	switch v := node.(type) {
	case map[string]any:
		if len(v) > g.limits.MaxItems {
			return models.NewError(models.KindValidation,
				"file %q has a mapping with %d entries, limit is %d", filename, len(v), g.limits.MaxItems)
		}
		for key, value := range v {
			if len(key) > g.limits.MaxStringLength {
				return models.NewError(models.KindValidation,
					"file %q has a key longer than %d characters", filename, g.limits.MaxStringLength)
			}
			if err := g.checkNode(filename, value, depth+1); err != nil {
				return err
			}
		}
	case []any:
		if len(v) > g.limits.MaxItems {
			return models.NewError(models.KindValidation,
				"file %q has a sequence with %d items, limit is %d", filename, len(v), g.limits.MaxItems)
		}
		for _, item := range v {
			if err := g.checkNode(filename, item, depth+1); err != nil {
				return err
			}
		}
	case string:
		if len(v) > g.limits.MaxStringLength {
			return models.NewError(models.KindValidation,
				"file %q has a string longer than %d characters", filename, g.limits.MaxStringLength)
		}
	}
	return nil
}

// CheckNamespaceName validates a namespace against the DNS-1123 label
// grammar (lowercase alphanumerics and hyphens, at most 63 characters).
func (g *Gate) CheckNamespaceName(name string) error {
	if errs := validation.IsDNS1123Label(name); len(errs) > 0 {
		return models.NewError(models.KindNamespaceValidation,
			"namespace %q: %s", name, strings.Join(errs, "; "))
	}
	return nil
}

// CheckResourceName validates a general resource name against the
// DNS-1123 subdomain grammar (at most 253 characters).
func (g *Gate) CheckResourceName(name string) error {
	if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return models.NewError(models.KindValidation,
			"resource name %q: %s", name, strings.Join(errs, "; "))
	}
	return nil
}

// VerifyManifest requires the minimal Kubernetes resource shape:
// apiVersion, kind, and a non-empty metadata.name.
func (g *Gate) VerifyManifest(filename string, doc map[string]any) error {
	for _, field := range []string{"apiVersion", "kind", "metadata"} {
		if _, ok := doc[field]; !ok {
			return models.NewError(models.KindValidation,
				"file %q is missing required field %q", filename, field)
		}
	}
	metadata, ok := doc["metadata"].(map[string]any)
	if !ok {
		return models.NewError(models.KindValidation, "file %q has a non-mapping metadata", filename)
	}
	name, ok := metadata["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return models.NewError(models.KindValidation, "file %q is missing metadata.name", filename)
	}
	if err := g.CheckResourceName(name); err != nil {
		return fmt.Errorf("file %q: %w", filename, err)
	}
	return nil
}
