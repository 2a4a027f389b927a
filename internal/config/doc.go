// Package config loads and validates dispatcher configuration from YAML
// files, with environment variable overrides and optional hot reload of
// the settings that are safe to change without restarting a run.
//
// Architecture Compliance:
//   - Fail-fast validation: LoadConfig rejects an invalid file before any
//     component observes it.
//   - Hot reload is intentionally narrow: DeviceIDs, QueueSize and BaseSeed
//     are immutable once a Controller has been constructed from a Config
//     (no dynamic worker pool resizing), so a reload keeps their current
//     values; every other setting is applied and passed to reload
//     notifications.
//
// Requirements Coverage:
//   - REQ-CONFIG-001: Validate configuration files before loading.
//   - REQ-CONFIG-002: Fail fast on configuration errors.
//   - REQ-CONFIG-003: Early detection and clear error reporting.
package config
