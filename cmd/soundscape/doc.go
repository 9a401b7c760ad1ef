// Command soundscape is the command-line surface for the soundscape engine:
// catalog browsing and refresh, asset cache maintenance, scene editing,
// favorites, and live playback.
package main
