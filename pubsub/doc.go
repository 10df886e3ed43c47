// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package pubsub fans live events out to websocket subscribers.

Two topic families exist:

  - ElectionTopic(id): public; receives tally and election-updated events
  - OrganizerTopic(id): private; receives credit-change events

The Hub is a single goroutine owning the subscriber maps; handlers attach
connections with Subscribe and publishers call Broadcast. Delivery is
at-most-once: broadcasts never block, and subscribers that cannot keep up
are disconnected rather than applying backpressure to the vote path.
*/
package pubsub
