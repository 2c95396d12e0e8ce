// Package fact defines the labeled pieces of diagnostic information that make
// up an assertion failure message.
//
// A failure is an ordered list of facts. The first fact usually summarizes
// what was expected, later ones add context such as "but was" or
// "value of". Format renders the list as the multi-line message users see:
//
//	value of: string.length()
//	expected: 5
//	but was : 4
//	string was: kurt
//
// The exact key wording is part of the user-visible contract and is matched
// by tooling, so keys are plain strings rather than an enumeration.
package fact
