// Package scheduler drives the dashboard refresh ticks. Every tick with an
// interval becomes a gocron job that builds the tick's update for each
// region a websocket client is watching and pushes it to the hub.
//
// The jobs are implemented in jobs.go
package scheduler
