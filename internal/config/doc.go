// Package config loads, normalizes, and validates partscope configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and PARTSCOPE_CLASSIFIER_ENDPOINT. The Config type
// centralizes every knob the service and CLI need, so the image directory,
// database location, classifier backend, and insight policy are discovered in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
