// Package runtime wires a kllc process together: configuration, logging,
// the git client, the state store, the lifecycle engine and the channel
// that serialises intents into it.
package runtime
