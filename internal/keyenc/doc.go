// Package keyenc turns arbitrary cache keys into file tokens: filesystem-safe,
// length-bounded name fragments used for both single-entry paths and
// prefix scans. Tokens are URL-query escaped the way PHP's urlencode does,
// with ':' and '/' kept readable as '@' and '=', and anything longer than
// MaxTokenLen is cut at HashCut and finished with ',' plus the MD5 of the
// remainder.
//
// Encode additionally escapes the tokens that would collide with directory
// entries or marker files: the empty key, "." and "..", and a trailing
// ".expire". Literal undoes exactly those rewrites, and prefix scans rely on
// EncodePrefix(p) being a literal prefix of Literal(Encode(k)) for every k
// starting with p. That stops holding once either side crosses the
// truncation boundary; deletes by such prefixes are best effort.
package keyenc
