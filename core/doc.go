// Package core implements the in-process runtime shared by coordinators and
// workers.
//
// This package provides the Channel (two unbounded FIFO queues with
// non-blocking retrieval), the BaseActor bookkeeping embedded by every
// actor, and the System that runs a fixed set of actors until one of them
// halts the run.
package core
