// Exportctl runs tabular exports from the command line.
//
// Usage:
//
//	# Export a JSON or CSV file as CSV into ./out
//	exportctl export data.json --format csv --out ./out
//
//	# Project onto a preset's columns and render a printable document
//	exportctl export products.csv --preset products --format pdf
//
//	# Fetch records from an HTTP endpoint
//	exportctl export --remote https://api.example.com --path /products --format json
//
//	# Run every job of a YAML manifest
//	exportctl batch jobs.yaml --out ./out
//
//	# Start the HTTP API
//	exportctl serve
package main

func main() {
	Execute()
}
