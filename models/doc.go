// Package models implements spec §8's worked examples over pkg/model:
// Sum (scenario 1, y = x + offset), LinearIsotropic (scenario 2, Hooke's
// law via pkg/primitive's SR2/SSR4), and Composed (scenario 3, two
// registered submodels whose outputs its forward function sums by calling
// them directly, without the dependency resolver). Each also
// registers itself with pkg/factory under a type name, the same way the
// teacher's marshaller formats register themselves from their own
// package's init().
package models
