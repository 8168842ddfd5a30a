// Package domain defines the MCP tool schemas and handlers exposed by the
// Studyhall MCP server. Handlers are thin adapters over the feature services;
// all validation and persistence stays in the services.
package domain
