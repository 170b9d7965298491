// Package relay carries screen updates from the simulator to the display.
//
// The simulator connects over WebSocket and sends text frames of the form
// "<command>:<payload>". Update frames are decoded on the connection's own
// goroutine and pushed onto a bounded Queue; the display drains the queue
// once per tick and applies the updates in arrival order.
package relay
