//go:build !mctsdebug

package searcher

const strict = false
