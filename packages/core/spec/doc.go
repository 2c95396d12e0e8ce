// Package spec parses factcheck case files.
//
// A case file is YAML, conventionally named *.factcheck.yaml:
//
//	name: users
//	variables:
//	  expected: kurt
//	cases:
//	  - name: name length
//	    tags: [smoke]
//	    string: "{{expected}}"
//	    expect:
//	      - hasLength: 4
//	      - startsWith: k
//	  - name: sorted ids
//	    ints: [42, 43]
//	    expect:
//	      - containsExactly: [42, 43]
//	        inOrder: true
//
// Each case has exactly one actual source (string, ints, strings, json or
// query) and a list of expectations. Each expectation has exactly one
// operator key plus optional modifiers (path, inOrder, ignoreCase, message).
//
// Parse only decodes the document; Validate reports unknown operators,
// arguments of the wrong shape and missing or conflicting sources, each
// with its line number.
package spec
