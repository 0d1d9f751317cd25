// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package ucsmap_test

// raceEnabled is true when the race detector is active. The randomized
// AVL soak test runs a reduced operation count under race, since the
// detector's bookkeeping dominates wall time long before it adds any
// coverage unsafe.Pointer-based code doesn't already get from -race.
const raceEnabled = true
