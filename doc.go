// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package fvsim is a hardware-description execution engine: it builds a
graph of four-valued digital signals (0, 1, X-unknown, Z-floating) and
executes it either combinationally (values settle immediately) or
temporally, through a discrete-event simulator with delta-cycle
semantics.

Signals carry logic.Value bit vectors of arbitrary width. Plain wires
take a single driver, nets resolve any number of simultaneous drivers
per-bit (contention yields X), and bundles and arrays group child
signals into one bus with bidirectional bit-range synchronization.

Every recomputation of a signal fires its glitch event synchronously;
once a timestamp's delta cycles quiesce, signals whose settled value
changed fire their changed event exactly once. Testbench code can react
through subscriptions, or through processes spawned with Sim.Spawn that
block on edges, changes and delays while staying strictly interleaved
with the simulator's single logical timeline.

*/
package fvsim
