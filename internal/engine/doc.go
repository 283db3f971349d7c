// Package engine contains the gameplay rules and session logic.
// This is the heartbeat of the System: quest resolution, rewards,
// the penalty zone and the schedulers that enforce the daily cutoff.
package engine
