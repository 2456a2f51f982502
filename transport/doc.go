// Package transport moves frames between capture devices, the lane pipeline,
// and output sinks.
//
// A Runner reads from one Source into a latest-frame-wins Mailbox. Workers
// take the newest pending frame, run the Processor, and hand the composite to
// every Sink. When the workers fall behind, older frames are overwritten and
// counted as drops instead of queueing.
//
//	Source ──Put──▶ Mailbox (1 slot) ──Take──▶ worker × N ──▶ Sink...
package transport
