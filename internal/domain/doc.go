// Package domain defines the core business types for the rewards analytics engine.
//
// Types in this package are pure value objects with no behavior, no database
// dependencies, and no transport concerns. They are the shared language between
// the normalizer, the feature builder, the segmentation model, and the
// aggregators.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
