// Package domain contains the core business entities and rules for the
// mural engine: documents, chunks, vector mappings, tags and groups, plus
// the value objects used by search and answer orchestration.
//
// # Import Rules
//
//   - Can Import: standard library only
//   - Cannot Import: ports, services, or any adapter package
package domain
