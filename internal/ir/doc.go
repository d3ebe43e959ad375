// Package ir provides the intermediate representation shared by every stage
// of a conversion: parsed row fields, asset references, config entries and
// the aggregated job result.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Coordinates and angles are integers once parsed (rounded half to even)
//   - Asset indices are per kind and never renumbered within a job
//   - Entries keep processing order; nothing downstream sorts them
package ir
