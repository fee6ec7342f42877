// Package model provides the record and invocation types shared by every
// other limiter package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - Amounts are int64 minor units carried with their Symbol; no floats.
//   - Operations form a closed set (Op) with one typed Args variant each.
//   - Every invocation carries its own Now and Authority; nothing is read
//     from ambient state.
//   - All JSON tags use snake_case.
package model
