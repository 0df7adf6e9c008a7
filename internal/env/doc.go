// Package env reads typed values from an environment source. A Reader never
// stops at the first problem: missing required variables and malformed values
// are collected so a deployment can be fixed in one pass.
package env
