// Package audio plays the game's sound effects with gopxl/beep.
//
// Clips are synthesized at startup into a Bank. A Player implements the
// engine's audio collaborator contracts: one-shots, named sounds with
// completion callbacks, and a pitched looping voice used during rewind.
// Completion callbacks are delivered from Update, which the game calls on
// every tick, so they run on the simulation thread and stall with it.
//
// Speaker output is optional. Without an Output the Player only tracks
// clip timing, which is what headless servers and tests use.
package audio
