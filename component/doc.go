// Package component defines the lifecycle interface shared by the
// service's long-running parts and a registry that starts them in order
// and stops them in reverse.
package component
