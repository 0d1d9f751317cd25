// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package ucsmap

// raceEnabled is true when the race detector is active; see the
// identically named flag in the black-box test package for why the
// randomized soak test shrinks its operation count under it.
const raceEnabled = true
