// Package metrics
package metrics

const KhetsenseNamespace = "khetsense"
