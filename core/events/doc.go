// Package events defines the instrument events pushed to the event log.
//
// Topology events:
//   - KindChannelsUncoupled, KindCoupledInParallel, KindCoupledInSeries,
//     KindCoupledInCommonGnd, KindCoupledInSplitRails: coupling changes
//   - KindChannelsTracked: a channel joined the tracked group
package events
