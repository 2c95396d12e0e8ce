// Package env resolves {{...}} placeholders in case files.
//
// A placeholder is one of:
//   - {{name}}: a variable from the case file or the command line
//   - {{$NAME}}: a process environment variable
//   - {{fn(args)}}: a function from package builtin
//
// Values from .env files are loaded with LoadDotEnv.
package env
