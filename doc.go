// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devices is a container for the IV-22 vacuum-fluorescent display
// driver and its supporting packages.
//
// The display is driven through SN74HC595 shift registers (package
// sn74hc595) and multiplexed across digit positions (package iv22). Segment
// patterns live in package segment. The screenvfd and tubesink packages
// render the latched tube state for development without hardware.
package devices
