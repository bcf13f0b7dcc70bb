// Package core has the attention tracking and flow scoring logic: URL
// classification, the segment tracker and tab registry, the flow score engine
// and the deterministic flow simulator.
//
// Everything here is free of I/O except through the contract interfaces, so
// the same code runs behind the HTTP router, the MCP tools and the CLI.
package core
