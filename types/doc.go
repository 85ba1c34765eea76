// Package types provides core types used across the agentgraph engine.
// This package has ZERO dependencies on other agentgraph packages to avoid
// circular imports. All other packages should import types from here.
package types
