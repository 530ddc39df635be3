// Package output renders snapback-cli results as a table, JSON or YAML.
package output
