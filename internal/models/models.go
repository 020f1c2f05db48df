// Package models provides the data structures shared by the import pipeline:
// accounts, intermediate statement rows, normalized transactions, payee
// mappings and categories.
package models
