// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the engine to function:
//
//   - DocumentStore: relational persistence for documents, chunks and
//     vector mappings, with per-user scoping and cascade delete
//   - TagStore: tag persistence and tag search
//   - GroupStore: group persistence with soft-detach on delete
//   - VectorIndex: one namespaced external index per modality/dimension pair
//   - TextEmbedder: text encoder (dimension D_t)
//   - CrossModalEmbedder: shared image/text encoder (dimension D_i)
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully:
//
//   - ObjectDetector: zero-shot localisation. Without it, tagging is disabled.
//   - LLMService: language generation. Without it, answer orchestration is disabled.
//   - PromptStore: prompt template overrides. Without it, compiled-in defaults apply.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: any adapter package
package driven
