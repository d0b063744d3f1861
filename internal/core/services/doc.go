// Package services implements the driving port interfaces.
// Services contain the synchronisation lifecycle logic and orchestrate
// calls to driven ports (adapters).
//
// All source state lives in the Registry; the other services read
// through it and mutate through its methods only.
package services
