// Package events broadcasts pipeline transitions to websocket subscribers.
package events
