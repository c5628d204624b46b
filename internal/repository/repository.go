// Package repository handles all interactions with the database.
//
// It runs the statements built by the query package and the fixed
// aggregate queries behind the plot endpoints, and normalizes driver
// values into plain Go types.
package repository
