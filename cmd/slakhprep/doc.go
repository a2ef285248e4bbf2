// Package main hosts the slakhprep CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, builds the
// structured logger, runs filesystem preflight checks, and then hands each
// requested split to the prep service. Generated listings and the feature
// store are written to the configured output directory; stdout carries only
// human-readable summaries and tables.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through a dedicated command or flag here.
package main
