// Package jsondoc provides a subject for JSON documents.
//
// Paths use gjson syntax. Array indexes may also be written in bracket
// notation, so "items[0].id" and "items.0.id" address the same value.
//
//	doc := jsondoc.That(ck, body)
//	doc.IsValid()
//	doc.StringAt("user.name").StartsWith("k")
//	doc.MatchesSchemaFile("testdata/user.schema.json")
package jsondoc
