// Package telemetry provides Pyroscope continuous profiling integration.
package telemetry

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys.
const (
	// ProfilingLabelController is the label key for the handler name.
	ProfilingLabelController = "controller"
	// ProfilingLabelRoute is the label key for the route pattern.
	ProfilingLabelRoute = "route"
	// ProfilingLabelMethod is the label key for the HTTP method.
	ProfilingLabelMethod = "method"
	// ProfilingLabelTenantID is the label key for the tenant ID.
	ProfilingLabelTenantID = "tenant_id"
	// ProfilingLabelOperation is the label key for the operation name.
	ProfilingLabelOperation = "operation"
	// ProfilingLabelJobType is the label key for background job types.
	ProfilingLabelJobType = "job_type"
)

// MaxLabelValueLength is the maximum allowed length for label values. Longer
// values are truncated to keep Pyroscope memory usage bounded.
const MaxLabelValueLength = 128

// HighCardinalityLabels contains label keys that sanitizeLabels silently
// drops. Per-request and per-record identifiers would explode series
// cardinality in Pyroscope.
//
// tenant_id is intentionally absent: tenant counts stay low enough to label.
var HighCardinalityLabels = map[string]bool{
	"user_id":     true,
	"request_id":  true,
	"sale_id":     true,
	"customer_id": true,
	"trace_id":    true,
	"span_id":     true,
	"session_id":  true,
}

// WithProfilingLabels wraps fn with profiling labels so the work can be
// sliced by label in the Pyroscope UI. The labels map is copied, so the
// caller may reuse it after the call.
//
// Usage:
//
//	telemetry.WithProfilingLabels(ctx, map[string]string{
//	    "operation": "RecomputeScores",
//	    "tenant_id": tenantID.String(),
//	}, func(c context.Context) {
//	    scoreCustomers(c)
//	})
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	if len(labels) == 0 {
		fn(ctx)
		return
	}

	labelsCopy := make(map[string]string, len(labels))
	maps.Copy(labelsCopy, labels)

	labelPairs := sanitizeLabels(labelsCopy)
	if len(labelPairs) == 0 {
		fn(ctx)
		return
	}

	// pyroscope.TagWrapper is built on Go's native pprof label API, so the
	// labels also show up in standard pprof output.
	pyroscope.TagWrapper(ctx, pyroscope.Labels(labelPairs...), fn)
}

// sanitizeLabels validates labels for Pyroscope: high-cardinality keys and
// empty pairs are dropped, over-long values truncated, keys normalized to
// snake_case. Returns a deterministic flat key-value slice.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	pairs := make([]string, 0, len(labels)*2)

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := labels[key]

		if key == "" || value == "" {
			continue
		}
		// Dropped silently rather than logged: this runs in hot paths.
		if HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}

		sanitizedKey := sanitizeLabelKey(key)
		if sanitizedKey == "" {
			continue
		}

		pairs = append(pairs, sanitizedKey, value)
	}

	return pairs
}

// sanitizeLabelKey normalizes a label key to snake_case, stripping anything
// that is not alphanumeric or underscore.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	result := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			result = append(result, c)
		}
	}

	return string(result)
}

// HTTPRequestLabels creates the standard label set for HTTP request profiling.
func HTTPRequestLabels(controller, route, method, tenantID string) map[string]string {
	labels := make(map[string]string, 4)

	if controller != "" {
		labels[ProfilingLabelController] = controller
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	if tenantID != "" {
		labels[ProfilingLabelTenantID] = tenantID
	}

	return labels
}

// OperationLabels creates labels for a named operation.
func OperationLabels(operation string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelOperation] = operation
	maps.Copy(labels, extraLabels)

	return labels
}

// JobLabels creates labels for a background job run.
func JobLabels(jobType, tenantID string) map[string]string {
	labels := map[string]string{
		ProfilingLabelJobType: jobType,
	}
	if tenantID != "" {
		labels[ProfilingLabelTenantID] = tenantID
	}

	return labels
}
