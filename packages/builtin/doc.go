// Package builtin provides the functions available inside {{...}}
// placeholders of case files, e.g. {{sha256(hello)}} or {{repeat(ab, 3)}}.
//
// Arguments are literal text separated by commas and trimmed of spaces;
// quote an argument that contains a comma.
//
// Available functions:
//   - upper(s), lower(s), trim(s)
//   - repeat(s, n)
//   - base64(s), base64Decode(s)
//   - md5(s), sha256(s)
//   - urlEncode(s), urlDecode(s)
//   - uuid(): random UUID v4
//   - now(): current UTC time in RFC 3339
//   - date([layout]): current UTC date, "2006-01-02" by default
package builtin
