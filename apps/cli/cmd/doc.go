// Package cmd implements the factcheck CLI commands using Cobra.
//
// Available commands:
//   - run: Execute assertion cases from .factcheck.yaml files
//   - validate: Check case files without running them
//   - list: Display the cases of a file, or the available operators
//   - init: Create a config file and an example case file
//   - history: Show recorded runs
//   - version: Show factcheck version information
//   - completion: Generate shell completion scripts
//
// Most run flags default from FACTCHECK_* environment variables and
// override the values of the config file.
package cmd
