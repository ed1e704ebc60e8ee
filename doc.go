// Package infernal implements the infernal scheduler: an M:N user-space
// scheduler that multiplexes lightweight cooperative tasks ("legions") onto
// a small fixed pool of OS threads ("workers"), plus the typed blocking
// Channel used as the primary inter-legion synchronization primitive.
//
// A legion is spawned with Spawn and submitted to the scheduler with Start.
// It runs until it either returns (and dies) or reaches a suspension
// point: Yield, or a Channel Send/Recv that must block. Suspension never
// blocks the host worker thread — it parks the legion and switches the
// worker back to its scheduler context, which then picks up other work.
package infernal
