// Package relay receives magnet URIs and forwards them to the configured
// remote torrent client, one independent operation per URI.
package relay
