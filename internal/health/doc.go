// Package health probes the service's dependencies and reduces the outcomes
// to a single verdict.
//
// Two HTTP handlers are provided. LivenessHandler answers immediately without
// touching any dependency. DetailedHandler runs every registered Checker once,
// in registration order, each under its own timeout, and answers 200 when all
// report healthy and 503 otherwise. A failing or hanging dependency is a
// reportable state: it never turns into an error response.
package health
